package dto

type OrderFilters struct {
	CustomerID    string
	Status        string
	PaymentStatus string
	Page          int
	PageSize      int
}

// Actions accepted by TransitionOrder.
const (
	ActionConfirm        = "confirm"
	ActionExport         = "export"
	ActionHandOver       = "handOver"
	ActionDeliverTransit = "deliverTransit"
	ActionShip           = "ship"
	ActionDeliverSuccess = "deliverSuccess"
	ActionFailDelivery   = "failDelivery"
	ActionCancel         = "cancel"
)
