// Package cocos implements COCOS (COordinate COnventionS) transformations
// for tokamak physics data. Different conventions affect the signs and
// 2*pi factors of magnetic field and current quantities; composed output
// targets COCOS 11 (the IMAS standard).
//
// Reference: O. Sauter & S.Yu. Medvedev, Comp. Phys. Comm. 184 (2013) 293-302.
package cocos
