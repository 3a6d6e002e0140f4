package enums

// OrderStatus is the server-reported lifecycle state of an order.
// Values are passed through as reported; unknown values are kept verbatim.
type OrderStatus string

const (
	OrderStatusAccepted  OrderStatus = "Order Accepted !"
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusDelivered OrderStatus = "Delivered"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}
