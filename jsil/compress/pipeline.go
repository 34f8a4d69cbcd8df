package compress

// Pipeline is an ordered list of stages applied on write and reversed on
// read: `(T3 ∘ T2 ∘ T1)⁻¹ = T1⁻¹ ∘ T2⁻¹ ∘ T3⁻¹`.
type Pipeline []Stage

// Encode applies every stage in order.
func (p Pipeline) Encode(payload []byte) []byte {
	for _, s := range p {
		payload = s.Encode(payload)
	}
	return payload
}

// Decode reverses every stage in the opposite order they were applied.
func (p Pipeline) Decode(payload []byte) []byte {
	for i := len(p) - 1; i >= 0; i-- {
		payload = p[i].Decode(payload)
	}
	return payload
}
