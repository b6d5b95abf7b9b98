package ml

import "golang.org/x/exp/rand"

// Split shuffles the rows with a fixed seed and cuts off testFrac of them as
// a held-out set. Mirrors the reproducible 80/20 split the training calls
// rely on.
func Split(
	x [][]float64, y []float64, testFrac float64, seed uint64,
) (trainX [][]float64, trainY []float64, testX [][]float64, testY []float64) {
	n := len(x)
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	nTest := int(float64(n) * testFrac)
	if nTest < 1 && n > 1 {
		nTest = 1
	}
	cut := n - nTest

	trainX = make([][]float64, 0, cut)
	trainY = make([]float64, 0, cut)
	testX = make([][]float64, 0, nTest)
	testY = make([]float64, 0, nTest)
	for i, p := range perm {
		if i < cut {
			trainX = append(trainX, x[p])
			trainY = append(trainY, y[p])
		} else {
			testX = append(testX, x[p])
			testY = append(testY, y[p])
		}
	}
	return trainX, trainY, testX, testY
}
