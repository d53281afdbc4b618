package nfe

var BarcodeCandidates = barcodeCandidates
