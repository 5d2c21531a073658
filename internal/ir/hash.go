package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes keep hashes of different record kinds from colliding.
const (
	DomainCall    = "ontic/call/v1"
	DomainOutcome = "ontic/outcome/v1"
	DomainSpec    = "ontic/spec/v1"
)

// hashWithDomain returns hex(SHA256(domain || 0x00 || data)).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CallID computes the content-addressed ID of a call.
// Identical flow, method, args and seq always produce the same ID.
func CallID(flowToken, method string, args List, seq int64) (string, error) {
	if args == nil {
		args = List{}
	}
	data, err := MarshalCanonical(Object{
		"flow_token": Str(flowToken),
		"method":     Str(method),
		"args":       args,
		"seq":        Int(seq),
	})
	if err != nil {
		return "", fmt.Errorf("call id: %w", err)
	}
	return hashWithDomain(DomainCall, data), nil
}

// OutcomeID computes the content-addressed ID of an outcome.
func OutcomeID(callID, outputCase string, result Object, seq int64) (string, error) {
	if result == nil {
		result = Object{}
	}
	data, err := MarshalCanonical(Object{
		"call_id": Str(callID),
		"case":    Str(outputCase),
		"result":  result,
		"seq":     Int(seq),
	})
	if err != nil {
		return "", fmt.Errorf("outcome id: %w", err)
	}
	return hashWithDomain(DomainOutcome, data), nil
}

// SpecHash fingerprints contract source so journals record which contracts produced them.
func SpecHash(source []byte) string {
	return hashWithDomain(DomainSpec, source)
}

// MustCallID is CallID for inputs known to be valid. Panics on error.
func MustCallID(flowToken, method string, args List, seq int64) string {
	id, err := CallID(flowToken, method, args, seq)
	if err != nil {
		panic(err)
	}
	return id
}
