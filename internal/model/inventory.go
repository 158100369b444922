package model

// InventoryPart is a row in the `inventory` table.  Price is a
// non-negative amount in the shop currency.
type InventoryPart struct {
    ID    uint64  // inventory.id
    Name  string  // inventory.name
    Price float64 // inventory.price
}
