package adapters

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"courier-portal/internal/core/config"
	"courier-portal/internal/core/shipping"
	"courier-portal/internal/features/shipments/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// UserModel is the users table.
type UserModel struct {
	ID           string             `gorm:"type:varchar(36);primaryKey"`
	Email        string             `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string             `gorm:"type:varchar(255);not null"`
	Name         string             `gorm:"type:varchar(255)"`
	UserType     string             `gorm:"type:varchar(20);not null;default:new"`
	Preferences  domain.Preferences `gorm:"serializer:json"`
	LastLogin    *time.Time
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (UserModel) TableName() string { return "users" }

// PackageModel is the packages table.
type PackageModel struct {
	ID                string          `gorm:"type:varchar(36);primaryKey"`
	TrackingNumber    string          `gorm:"type:varchar(32);uniqueIndex;not null"`
	UserID            string          `gorm:"type:varchar(36);index"`
	Status            string          `gorm:"type:varchar(20);not null"`
	Service           string          `gorm:"type:varchar(50)"`
	Weight            float64
	Dimensions        string          `gorm:"type:varchar(50)"`
	Sender            domain.Address  `gorm:"serializer:json"`
	Recipient         domain.Address  `gorm:"serializer:json"`
	Cost              decimal.Decimal `gorm:"type:numeric(12,2)"`
	EstimatedDelivery *time.Time
	ActualDelivery    *time.Time
	Events            []EventModel `gorm:"foreignKey:PackageID"`
	CreatedAt         time.Time    `gorm:"not null"`
	UpdatedAt         time.Time    `gorm:"not null"`
}

func (PackageModel) TableName() string { return "packages" }

// EventModel is the events table, one row per tracking event.
type EventModel struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	PackageID   string    `gorm:"type:varchar(36);index;not null"`
	Timestamp   time.Time `gorm:"not null"`
	Status      string    `gorm:"type:varchar(20);not null"`
	Location    string    `gorm:"type:varchar(255)"`
	Description string    `gorm:"type:text"`
}

func (EventModel) TableName() string { return "events" }

// SQLBackend stores users and packages in a SQL database through gorm.
type SQLBackend struct {
	db *gorm.DB
}

// OpenSQLBackend connects to the postgres DSN in cfg.URL, using cfg.Key as password.
func OpenSQLBackend(ctx context.Context, cfg config.ExternalConfig) (*SQLBackend, error) {
	dsn, err := postgresDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	b := NewSQLBackend(db)
	if err := b.HealthCheck(ctx); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func postgresDSN(cfg config.ExternalConfig) (string, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return "", fmt.Errorf("invalid database url: %w", err)
	}
	if cfg.Key != "" {
		u.User = url.UserPassword(u.User.Username(), cfg.Key)
	}
	if cfg.TimeoutSeconds > 0 {
		q := u.Query()
		q.Set("connect_timeout", fmt.Sprint(cfg.TimeoutSeconds))
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// NewSQLBackend wraps an open gorm connection.
func NewSQLBackend(db *gorm.DB) *SQLBackend {
	return &SQLBackend{db: db}
}

func (b *SQLBackend) Name() string { return "sql" }

func (b *SQLBackend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// HealthCheck pings the database.
func (b *SQLBackend) HealthCheck(ctx context.Context) error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Migrate creates or updates the users, packages and events tables.
func (b *SQLBackend) Migrate(ctx context.Context) error {
	return b.db.WithContext(ctx).AutoMigrate(&UserModel{}, &PackageModel{}, &EventModel{})
}

func (b *SQLBackend) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return b.findUser(ctx, "email = ?", strings.ToLower(email))
}

func (b *SQLBackend) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	return b.findUser(ctx, "id = ?", id)
}

func (b *SQLBackend) findUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	var m UserModel
	err := b.db.WithContext(ctx).Where(query, arg).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return m.toDomain(), nil
}

func (b *SQLBackend) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	m := UserModel{
		ID:           user.ID,
		Email:        strings.ToLower(user.Email),
		PasswordHash: user.PasswordHash,
		Name:         user.Name,
		UserType:     string(user.UserType),
		Preferences:  user.Preferences,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
	if m.ID == "" {
		m.ID = uuid.Must(uuid.NewV7()).String()
	}
	if m.UserType == "" {
		m.UserType = string(domain.UserTypeNew)
	}
	if err := b.db.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return m.toDomain(), nil
}

func (b *SQLBackend) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	err := b.db.WithContext(ctx).Model(&UserModel{}).Where("id = ?", id).Update("last_login", at).Error
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

func (b *SQLBackend) FindPackageByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Package, error) {
	m, err := b.findPackage(ctx, trackingNumber)
	if err != nil || m == nil {
		return nil, err
	}
	return m.toDomain(), nil
}

func (b *SQLBackend) findPackage(ctx context.Context, trackingNumber string) (*PackageModel, error) {
	var m PackageModel
	err := b.db.WithContext(ctx).
		Preload("Events", orderEvents).
		Where("tracking_number = ?", trackingNumber).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find package: %w", err)
	}
	return &m, nil
}

func (b *SQLBackend) AddTrackingEvent(ctx context.Context, trackingNumber string, event domain.TrackingEvent) (*domain.Package, error) {
	m, err := b.findPackage(ctx, trackingNumber)
	if err != nil || m == nil {
		return nil, err
	}

	row := EventModel{
		PackageID:   m.ID,
		Timestamp:   event.Timestamp,
		Status:      string(event.Status),
		Location:    event.Location,
		Description: event.Description,
	}
	if err := b.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to add tracking event: %w", err)
	}
	m.Events = append(m.Events, row)
	return m.toDomain(), nil
}

func (b *SQLBackend) ListPackages(ctx context.Context) ([]domain.Package, error) {
	var models []PackageModel
	err := b.db.WithContext(ctx).
		Preload("Events", orderEvents).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	out := make([]domain.Package, 0, len(models))
	for i := range models {
		out = append(out, *models[i].toDomain())
	}
	return out, nil
}

// SavePackage updates the package row with pkg's tracking number, or inserts
// pkg with its events when there is none. Events of an existing row are left
// to AddTrackingEvent.
func (b *SQLBackend) SavePackage(ctx context.Context, pkg *domain.Package) error {
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing PackageModel
		err := tx.Select("id").Where("tracking_number = ?", pkg.TrackingNumber).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			m := fromDomainPackage(pkg)
			if err := tx.Create(&m).Error; err != nil {
				return fmt.Errorf("failed to insert package: %w", err)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to find package: %w", err)
		}

		err = tx.Model(&PackageModel{}).Where("id = ?", existing.ID).Updates(map[string]any{
			"status":             string(pkg.Status),
			"estimated_delivery": pkg.EstimatedDelivery,
			"actual_delivery":    pkg.ActualDelivery,
			"updated_at":         pkg.UpdatedAt,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to save package: %w", err)
		}
		return nil
	})
}

// InsertPackage writes a package with its events; used by seeding and tests.
func (b *SQLBackend) InsertPackage(ctx context.Context, pkg *domain.Package) error {
	m := fromDomainPackage(pkg)
	if err := b.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("failed to insert package: %w", err)
	}
	return nil
}

func orderEvents(db *gorm.DB) *gorm.DB {
	return db.Order("timestamp ASC, id ASC")
}

func (m UserModel) toDomain() *domain.User {
	return &domain.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Name:         m.Name,
		UserType:     domain.UserType(m.UserType),
		Preferences:  m.Preferences,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		LastLogin:    m.LastLogin,
	}
}

func (m PackageModel) toDomain() *domain.Package {
	p := &domain.Package{
		ID:                m.ID,
		TrackingNumber:    m.TrackingNumber,
		UserID:            m.UserID,
		Status:            shipping.Status(m.Status),
		Service:           m.Service,
		Weight:            m.Weight,
		Dimensions:        m.Dimensions,
		Sender:            m.Sender,
		Recipient:         m.Recipient,
		Cost:              m.Cost,
		EstimatedDelivery: m.EstimatedDelivery,
		ActualDelivery:    m.ActualDelivery,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
		Events:            make([]domain.TrackingEvent, 0, len(m.Events)),
	}
	for _, e := range m.Events {
		p.Events = append(p.Events, domain.TrackingEvent{
			Timestamp:   e.Timestamp,
			Status:      shipping.Status(e.Status),
			Location:    e.Location,
			Description: e.Description,
		})
	}
	return p
}

func fromDomainPackage(p *domain.Package) PackageModel {
	m := PackageModel{
		ID:                p.ID,
		TrackingNumber:    p.TrackingNumber,
		UserID:            p.UserID,
		Status:            string(p.Status),
		Service:           p.Service,
		Weight:            p.Weight,
		Dimensions:        p.Dimensions,
		Sender:            p.Sender,
		Recipient:         p.Recipient,
		Cost:              p.Cost,
		EstimatedDelivery: p.EstimatedDelivery,
		ActualDelivery:    p.ActualDelivery,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
	if m.ID == "" {
		m.ID = uuid.Must(uuid.NewV7()).String()
	}
	for _, e := range p.Events {
		m.Events = append(m.Events, EventModel{
			PackageID:   m.ID,
			Timestamp:   e.Timestamp,
			Status:      string(e.Status),
			Location:    e.Location,
			Description: e.Description,
		})
	}
	return m
}
