package ntf

// optZeros holds the normalized optimal NTF zero positions per modulator
// order, expressed as fractions of the signal band edge. Minimizing the
// in-band noise power places the zeros at the Gauss-Legendre nodes of the
// corresponding order.
var optZeros = map[int][]float64{
	1: {0},
	2: {0.5773502691896257, -0.5773502691896257},
	3: {0.7745966692414834, 0, -0.7745966692414834},
	4: {
		0.8611363115940526, 0.3399810435848563,
		-0.3399810435848563, -0.8611363115940526,
	},
	5: {
		0.9061798459386640, 0.5384693101056831, 0,
		-0.5384693101056831, -0.9061798459386640,
	},
	6: {
		0.9324695142031521, 0.6612093864662645, 0.2386191860831969,
		-0.2386191860831969, -0.6612093864662645, -0.9324695142031521,
	},
	7: {
		0.9491079123427585, 0.7415311855993945, 0.4058451513773972, 0,
		-0.4058451513773972, -0.7415311855993945, -0.9491079123427585,
	},
	8: {
		0.9602898564975363, 0.7966664774136267, 0.5255324099163290, 0.1834346424956498,
		-0.1834346424956498, -0.5255324099163290, -0.7966664774136267, -0.9602898564975363,
	},
}

// maxTabulatedOrder is the highest order covered by the optimal-zero table.
const maxTabulatedOrder = 8
