package models

// SharePayload is the record embedded in a share token. Encoding and decoding
// must round-trip exactly so a shared link reproduces the calculation.
type SharePayload struct {
	Inputs  CalculatorInputs  `json:"inputs"`
	Results CalculationResult `json:"results"`
}
