// Package ring implements the consistent-hash ring over live members and
// the replica-triple placement function. The ring is a pure function of
// the membership snapshot it is built from: given the same addresses, any
// two nodes compute the same ring and therefore the same replica triple
// for any key.
package ring
