package enums

// Carrier is the two-letter code embedded at the head of tracking numbers.
type Carrier string

const (
	CarrierCJLogistics Carrier = "CJ"
	CarrierHanjin      Carrier = "HJ"
	CarrierLotte       Carrier = "LX"
	CarrierEPost       Carrier = "EP"
)

// Carriers lists every carrier eligible for tracking number generation.
var Carriers = []Carrier{
	CarrierCJLogistics,
	CarrierHanjin,
	CarrierLotte,
	CarrierEPost,
}

func (c Carrier) String() string {
	return string(c)
}
