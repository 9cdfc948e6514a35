package codec

// PackBitsEncode compresses b using Apple PackBits framing (spec §6.3): a
// sequence of (header, payload) pairs where a header n in [0,127] precedes
// n+1 literal bytes, and a header n in [-127,-1] precedes a single byte
// repeated 1-n times. Runs of 3 or more identical bytes are always emitted
// as a run when the run length fits; literal runs never straddle the start
// of such a run and are capped at 128 bytes.
func PackBitsEncode(b []byte) []byte {
	var out []byte
	i := 0
	n := len(b)
	for i < n {
		runLen := 1
		for i+runLen < n && b[i+runLen] == b[i] && runLen < 128 {
			runLen++
		}
		if runLen >= 3 {
			out = append(out, byte(int8(1-runLen)), b[i])
			i += runLen
			continue
		}

		// Accumulate a literal run, stopping before any run of 3+.
		litStart := i
		i++
		for i < n {
			// peek ahead: does a run of >=3 start at i?
			look := 1
			for i+look < n && b[i+look] == b[i] && look < 128 {
				look++
			}
			if look >= 3 {
				break
			}
			if i-litStart >= 128 {
				break
			}
			i++
		}
		litLen := i - litStart
		out = append(out, byte(litLen-1))
		out = append(out, b[litStart:i]...)
	}
	return out
}

// PackBitsDecode reverses PackBitsEncode.
func PackBitsDecode(b []byte) []byte {
	var out []byte
	i := 0
	n := len(b)
	for i < n {
		header := int8(b[i])
		i++
		switch {
		case header == -128:
			// no-op
		case header >= 0:
			count := int(header) + 1
			if i+count > n {
				count = n - i
			}
			out = append(out, b[i:i+count]...)
			i += count
		default:
			count := 1 - int(header)
			if i >= n {
				return out
			}
			v := b[i]
			i++
			for k := 0; k < count; k++ {
				out = append(out, v)
			}
		}
	}
	return out
}
