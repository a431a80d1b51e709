// Package testmodel provides domain types shared by tests: a shop (customers, orders,
// order lines) and a pet hierarchy exercising abstract associations.
package testmodel

import "github.com/conduit-lang/searchmap/internal/model"

// Customer embeds its orders, which embed their lines
type Customer struct {
	ID      int      `search:"id"`
	Name    string   `search:"field"`
	Address Address  `search:"embedded"`
	Orders  []*Order `search:"embedded,inverse=Customer"`
}

// Address is a component of Customer, not an entity
type Address struct {
	City    string   `search:"field"`
	Country *Country `search:"embedded"`
}

// Country is referenced from addresses
type Country struct {
	ID        int         `search:"id"`
	Name      string      `search:"field"`
	Residents []*Customer `search:"inverse=Address.Country"`
}

// Order belongs to a customer
type Order struct {
	ID       int          `search:"id"`
	Total    float64      `search:"field"`
	Customer *Customer    `search:"inverse=Orders"`
	Items    []*OrderLine `search:"embedded,inverse=Order"`
	Note     model.Optional[string]
}

// OrderLine belongs to an order
type OrderLine struct {
	ID       int    `search:"id"`
	Product  string `search:"field"`
	Quantity int    `search:"field"`
	Order    *Order
}

// NewShop returns a customer with one order of two lines, all linked both ways
func NewShop() (*Customer, *Order, *OrderLine, *OrderLine) {
	country := &Country{ID: 1, Name: "Iceland"}
	customer := &Customer{ID: 7, Name: "Ada", Address: Address{City: "Reykjavik", Country: country}}
	country.Residents = []*Customer{customer}

	order := &Order{ID: 42, Total: 30, Customer: customer}
	customer.Orders = []*Order{order}

	first := &OrderLine{ID: 1, Product: "tea", Quantity: 2, Order: order}
	second := &OrderLine{ID: 2, Product: "cup", Quantity: 1, Order: order}
	order.Items = []*OrderLine{first, second}
	return customer, order, first, second
}
