package marketdata

// Capability names a category of fetchable data. Every externally sourced
// payload in a run is keyed by one of these.
type Capability string

const (
	CapabilityPriceSeries     Capability = "price_series"
	CapabilityFundamentals    Capability = "fundamentals"
	CapabilityNews            Capability = "news"
	CapabilityInsiderActivity Capability = "insider_activity"
)

// Payload is a normalized, structured record set for one capability. Raw
// vendor text never crosses this boundary: a payload exists only after it
// passed format validation.
type Payload interface {
	Capability() Capability
	// Render returns a plain-text digest suitable for inclusion in an agent
	// conversation.
	Render() string
}
