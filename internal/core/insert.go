package core

import (
	"fmt"

	"stillcore/pkg/domain"
)

// Insert is the polymorphic entry point over the four entity kinds. It
// dispatches on the concrete type, allocates the id through the typed create,
// and returns the assigned id. Any other type yields ErrUnsupportedEntity.
func Insert(tx domain.Transaction, entity any) (int, error) {
	switch v := entity.(type) {
	case domain.StockItem:
		created, err := tx.CreateStockItem(v)
		if err != nil {
			return 0, err
		}
		return created.ID, nil
	case domain.Customer:
		created, err := tx.CreateCustomer(v)
		if err != nil {
			return 0, err
		}
		return created.ID, nil
	case domain.ProductionRun:
		created, err := tx.CreateProductionRun(v)
		if err != nil {
			return 0, err
		}
		return created.ID, nil
	case domain.Invoice:
		created, err := tx.CreateInvoice(v)
		if err != nil {
			return 0, err
		}
		return created.ID, nil
	default:
		return 0, domain.ErrUnsupportedEntity{Type: fmt.Sprintf("%T", entity)}
	}
}
