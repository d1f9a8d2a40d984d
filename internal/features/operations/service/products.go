package service

import (
	"fmt"
	"strings"

	"courier-portal/internal/features/operations/domain"
)

func productID(p domain.Product) string { return p.ID }

// ListProducts returns every product in insertion order.
func (s *Store) ListProducts() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Product(nil), s.products...)
}

// GetProduct finds a product by id.
func (s *Store) GetProduct(id string) (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexByID(s.products, id, productID); i >= 0 {
		return s.products[i], true
	}
	return domain.Product{}, false
}

// SearchProducts matches q case-insensitively against name, SKU and category.
func (s *Store) SearchProducts(q string) []domain.Product {
	q = normalizeQuery(q)
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Product{}
	for _, p := range s.products {
		if containsFold(p.Name, q) || containsFold(p.SKU, q) || containsFold(p.Category, q) {
			out = append(out, p)
		}
	}
	return out
}

// CreateProduct stores p under a fresh id. A SKU already used by another
// product, compared case-insensitively, fails with domain.ErrSKUTaken.
func (s *Store) CreateProduct(p domain.Product) (domain.Product, error) {
	now := s.now()
	p.ID = s.newID()
	p.CreatedAt = now
	p.UpdatedAt = now

	s.mu.Lock()
	if err := s.checkSKU(p.SKU, ""); err != nil {
		s.mu.Unlock()
		return domain.Product{}, err
	}
	s.products = append(s.products, p)
	s.mu.Unlock()

	s.publish(msg(ProductsChannel, EventProductCreated, p))
	return p, nil
}

// UpdateProduct merges patch into the product. Unknown ids return (nil, false, nil).
func (s *Store) UpdateProduct(id string, patch domain.ProductPatch) (*domain.Product, bool, error) {
	s.mu.Lock()
	i := indexByID(s.products, id, productID)
	if i < 0 {
		s.mu.Unlock()
		return nil, false, nil
	}
	if patch.SKU != nil {
		if err := s.checkSKU(*patch.SKU, id); err != nil {
			s.mu.Unlock()
			return nil, true, err
		}
	}
	patch.Apply(&s.products[i])
	s.products[i].UpdatedAt = s.now()
	updated := s.products[i]
	s.mu.Unlock()

	s.publish(msg(ProductsChannel, EventProductUpdated, updated))
	return &updated, true, nil
}

// checkSKU must be called with s.mu held. Empty SKUs are not checked.
func (s *Store) checkSKU(sku, exceptID string) error {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil
	}
	for _, p := range s.products {
		if p.ID != exceptID && strings.EqualFold(strings.TrimSpace(p.SKU), sku) {
			return fmt.Errorf("%w: %s", domain.ErrSKUTaken, sku)
		}
	}
	return nil
}

// DeleteProduct removes a product. Unknown ids return false.
func (s *Store) DeleteProduct(id string) bool {
	s.mu.Lock()
	i := indexByID(s.products, id, productID)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	removed := s.products[i]
	s.products = append(s.products[:i:i], s.products[i+1:]...)
	s.mu.Unlock()

	s.publish(msg(ProductsChannel, EventProductDeleted, Deletion{ID: removed.ID, SKU: removed.SKU}))
	return true
}
