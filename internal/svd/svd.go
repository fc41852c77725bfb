package svd

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SVD factorizes rows x cols row-major blocks.
type SVD struct {
	rows, cols int
}

func New(rows, cols int) *SVD {
	return &SVD{rows: rows, cols: cols}
}

// Exec factorizes data and returns its singular values in descending order.
// Calling rebuild writes U * diag(s) * V^T back into data, so callers may
// edit s between the two calls.
func (svd *SVD) Exec(data []float64) (s []float64, rebuild func(), err error) {
	if len(data) != svd.rows*svd.cols {
		return nil, nil, fmt.Errorf("svd: block has %d values, want %d", len(data), svd.rows*svd.cols)
	}
	a := mat.NewDense(svd.rows, svd.cols, data)
	var f mat.SVD
	if ok := f.Factorize(a, mat.SVDFull); !ok {
		return nil, nil, fmt.Errorf("svd: cannot factorize")
	}
	s = f.Values(nil)
	rebuild = func() {
		sigma := mat.NewDense(svd.rows, svd.cols, nil)
		for i := 0; i < min(svd.rows, svd.cols) && i < len(s); i++ {
			sigma.Set(i, i, s[i])
		}
		var u, v mat.Dense
		f.UTo(&u)
		f.VTo(&v)

		var res mat.Dense
		res.Product(&u, sigma, v.T())
		copy(data, res.RawMatrix().Data)
	}
	return s, rebuild, nil
}
