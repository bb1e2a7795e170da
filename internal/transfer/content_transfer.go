package transfer

type BusinessInfo struct {
	Name     string   `json:"name"`
	About    string   `json:"about"`
	Location string   `json:"location"`
	Type     string   `json:"type"`
	Services []string `json:"services,omitempty"`
}
