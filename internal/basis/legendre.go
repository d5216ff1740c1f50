package basis

import "math/big"

// legendreEval computes P_k(x) by Bonnet's recurrence
// k·Pk = (2k−1)·x·P(k-1) − (k−1)·P(k-2).
func legendreEval(k int, x float64) float64 {
	if k == 0 {
		return 1
	}
	if k == 1 {
		return x
	}
	prev, cur := 1.0, x
	for i := 2; i <= k; i++ {
		fi := float64(i)
		prev, cur = cur, ((2*fi-1)*x*cur-(fi-1)*prev)/fi
	}
	return cur
}

// legendreDeriv computes P'_k(x) via P'_k = P'(k-2) + (2k−1)·P(k-1).
func legendreDeriv(k int, x float64) float64 {
	if k == 0 {
		return 0
	}
	if k == 1 {
		return 1
	}
	pPrev, pCur := 1.0, x
	dPrev, dCur := 0.0, 1.0
	for i := 2; i <= k; i++ {
		fi := float64(i)
		dPrev, dCur = dCur, dPrev+(2*fi-1)*pCur
		pPrev, pCur = pCur, ((2*fi-1)*x*pCur-(fi-1)*pPrev)/fi
	}
	return dCur
}

// legendreMonomial expands P_k into exact rational monomial coefficients.
func legendreMonomial(k int) []*big.Rat {
	if k == 0 {
		return []*big.Rat{big.NewRat(1, 1)}
	}
	if k == 1 {
		return []*big.Rat{big.NewRat(0, 1), big.NewRat(1, 1)}
	}
	prev := []*big.Rat{big.NewRat(1, 1)}
	cur := []*big.Rat{big.NewRat(0, 1), big.NewRat(1, 1)}
	for i := 2; i <= k; i++ {
		a := big.NewRat(int64(2*i-1), int64(i))
		b := big.NewRat(int64(i-1), int64(i))
		next := ratZeros(i + 1)
		for j, c := range cur {
			next[j+1].Add(next[j+1], new(big.Rat).Mul(a, c))
		}
		for j, c := range prev {
			next[j].Sub(next[j], new(big.Rat).Mul(b, c))
		}
		prev, cur = cur, next
	}
	return cur
}
