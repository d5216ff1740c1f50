package basis

import "math/big"

// chebyshevEval computes T_k(x) by the standard three-term recurrence
// T0=1, T1=x, Tk = 2x·T(k-1) − T(k-2).
func chebyshevEval(k int, x float64) float64 {
	if k == 0 {
		return 1
	}
	if k == 1 {
		return x
	}
	prev, cur := 1.0, x
	for i := 2; i <= k; i++ {
		prev, cur = cur, 2*x*cur-prev
	}
	return cur
}

// chebyshevDeriv computes T'_k(x) via the coupled recurrence
// T'_k = 2·T(k-1) + 2x·T'(k-1) − T'(k-2).
func chebyshevDeriv(k int, x float64) float64 {
	if k == 0 {
		return 0
	}
	if k == 1 {
		return 1
	}
	tPrev, tCur := 1.0, x
	dPrev, dCur := 0.0, 1.0
	for i := 2; i <= k; i++ {
		dPrev, dCur = dCur, 2*tCur+2*x*dCur-dPrev
		tPrev, tCur = tCur, 2*x*tCur-tPrev
	}
	return dCur
}

// chebyshevMonomial expands T_k into exact monomial coefficients by running
// the recurrence over rational coefficient vectors.
func chebyshevMonomial(k int) []*big.Rat {
	if k == 0 {
		return []*big.Rat{big.NewRat(1, 1)}
	}
	if k == 1 {
		return []*big.Rat{big.NewRat(0, 1), big.NewRat(1, 1)}
	}
	prev := []*big.Rat{big.NewRat(1, 1)}
	cur := []*big.Rat{big.NewRat(0, 1), big.NewRat(1, 1)}
	two := big.NewRat(2, 1)
	for i := 2; i <= k; i++ {
		next := ratZeros(i + 1)
		for j, c := range cur {
			// 2x · cur
			next[j+1].Add(next[j+1], new(big.Rat).Mul(two, c))
		}
		for j, c := range prev {
			next[j].Sub(next[j], c)
		}
		prev, cur = cur, next
	}
	return cur
}

func ratZeros(n int) []*big.Rat {
	out := make([]*big.Rat, n)
	for i := range out {
		out[i] = new(big.Rat)
	}
	return out
}
