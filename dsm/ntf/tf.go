package ntf

// EvalTF evaluates a transfer function given in zero/pole/gain form at a
// point of the complex plane: k * prod(at - z_i) / prod(at - p_i).
func EvalTF(zeros, poles []complex128, gain float64, at complex128) complex128 {
	num := complex(gain, 0)
	for _, z := range zeros {
		num *= at - z
	}

	den := complex(1, 0)
	for _, p := range poles {
		den *= at - p
	}

	return num / den
}
