// Package colordiff provides pure color-difference math: conversion of
// normalized XYZ coordinates to CIE L*a*b* and the CIEDE2000 perceptual
// difference metric.
//
// All functions are deterministic and side-effect free. Rounding for
// display or persistence is the caller's concern; values returned here
// are exact.
package colordiff
