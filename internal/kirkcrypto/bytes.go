package kirkcrypto

// ConcatBytes joins chunks into one allocation, the shape of the
// fixed-layout hash input commitment.Multi's Concat method builds.
func ConcatBytes(chunks ...[]byte) []byte {
	var n int
	for _, c := range chunks {
		n += len(c)
	}
	out := make([]byte, 0, n)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}
