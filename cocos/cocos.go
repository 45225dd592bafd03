package cocos

import (
	"fmt"
	"math"
)

// Target is the COCOS convention composed output uses (IMAS standard).
const Target = 11

// TransformKind selects which quantity family a transform factor applies to.
type TransformKind string

const (
	// KindPSI transforms poloidal flux.
	KindPSI TransformKind = "PSI"
	// KindDPSI transforms poloidal flux derivatives (also 1/PSI quantities).
	KindDPSI TransformKind = "dPSI"
	// KindFFPrime transforms F*F' flux-function derivatives.
	KindFFPrime TransformKind = "F_FPRIME"
	// KindPPrime transforms pressure derivatives.
	KindPPrime TransformKind = "PPRIME"
	// KindQ transforms the safety factor.
	KindQ TransformKind = "Q"
	// KindTOR transforms toroidal quantities (Bt, Ip, F).
	KindTOR TransformKind = "TOR"
	// KindPOL transforms poloidal quantities (Bp).
	KindPOL TransformKind = "POL"
)

// Identify determines the COCOS convention of gEQDSK-style data from the
// signs of the toroidal field and plasma current at the magnetic axis.
// Zero plasma current defaults to the positive-Ip convention.
func Identify(bt, ip float64) (int, error) {
	signBt := sign(bt)
	signIp := sign(ip)

	switch {
	case signBt > 0 && signIp >= 0:
		return 1, nil
	case signBt > 0 && signIp < 0:
		return 3, nil
	case signBt < 0 && signIp > 0:
		return 5, nil
	case signBt < 0 && signIp < 0:
		return 7, nil
	case signBt < 0 && signIp == 0:
		return 3, nil
	default:
		return 0, fmt.Errorf("cocos: cannot identify convention from Bt=%g, Ip=%g", bt, ip)
	}
}

// TransformFactor returns the multiplicative factor converting a quantity of
// the given kind from one COCOS convention to another.
func TransformFactor(from, to int, kind TransformKind) (float64, error) {
	if from == to {
		return 1.0, nil
	}

	src, err := decode(from)
	if err != nil {
		return 0, err
	}
	tgt, err := decode(to)
	if err != nil {
		return 0, err
	}

	sigmaIp := float64(src.sigmaIp * tgt.sigmaIp)
	sigmaBp := float64(src.sigmaBp * tgt.sigmaBp)
	sigmaB0 := float64(src.sigmaB0 * tgt.sigmaB0)
	sigmaRhoTP := float64(src.sigmaRhoTP * tgt.sigmaRhoTP)
	expBp := float64(tgt.expBp - src.expBp)

	switch kind {
	case KindPSI:
		return sigmaIp * sigmaBp * math.Pow(2*math.Pi, expBp), nil
	case KindDPSI, KindFFPrime, KindPPrime:
		return sigmaIp * sigmaBp / math.Pow(2*math.Pi, expBp), nil
	case KindQ:
		return sigmaIp * sigmaB0 * sigmaRhoTP, nil
	case KindTOR:
		return sigmaB0, nil
	case KindPOL:
		return sigmaB0 * sigmaRhoTP, nil
	default:
		return 1.0, nil
	}
}

// ToTarget converts data in place from the given convention to COCOS 11.
func ToTarget(data []float64, from int, kind TransformKind) error {
	factor, err := TransformFactor(from, Target, kind)
	if err != nil {
		return err
	}
	for i := range data {
		data[i] *= factor
	}
	return nil
}

// params are the constituent signs and exponents of a COCOS number,
// Table 1 of Sauter & Medvedev 2013.
type params struct {
	sigmaIp    int
	sigmaBp    int
	expBp      int
	sigmaRhoTP int
	sigmaB0    int
}

func decode(cocos int) (params, error) {
	var base, expBp int
	switch {
	case cocos >= 1 && cocos <= 8:
		base, expBp = cocos, 0
	case cocos >= 11 && cocos <= 18:
		base, expBp = cocos-10, 1
	default:
		return params{}, fmt.Errorf("cocos: %d not in valid range (1-8, 11-18)", cocos)
	}

	p := params{expBp: expBp, sigmaIp: -1, sigmaBp: -1, sigmaRhoTP: -1, sigmaB0: 1}
	if base%2 == 1 {
		p.sigmaIp = 1
	}
	switch base {
	case 1, 2, 5, 6:
		p.sigmaBp = 1
	}
	if base <= 4 {
		p.sigmaRhoTP = 1
	}
	return p, nil
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
