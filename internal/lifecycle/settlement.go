package lifecycle

import (
	"errors"
	"math/big"
)

var (
	four = big.NewInt(4)
	five = big.NewInt(5)
)

// Split divides a job reward between the worker and the program treasury.
// The worker receives 80% rounded down to an integer amount; the treasury
// takes the remainder, so the two shares always sum exactly to the reward.
// All arithmetic stays in big.Int; rewards are token base units and must
// never pass through floating point.
func Split(reward *big.Int) (worker, program *big.Int, err error) {
	if reward == nil {
		return nil, nil, errors.New("settlement: reward is nil")
	}
	if reward.Sign() < 0 {
		return nil, nil, errors.New("settlement: reward is negative")
	}
	worker = new(big.Int).Mul(reward, four)
	worker.Quo(worker, five)
	program = new(big.Int).Sub(reward, worker)
	return worker, program, nil
}
