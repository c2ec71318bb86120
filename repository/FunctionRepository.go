package repository

import (
	"fmt"
	"math/rand"
	"time"
)

func GenerateRandomNumber() int {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	return rng.Intn(900000000) + 100000000
}

func GenerateRandomCode() string {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	letters := "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	prefix := string(letters[rng.Intn(len(letters))]) + string(letters[rng.Intn(len(letters))])
	number := rng.Intn(90000) + 10000

	return fmt.Sprintf("%s%d", prefix, number)
}

// GenerateDocumentNumber builds a document number like "QT-AB12345" from a
// prefix and a random code.
func GenerateDocumentNumber(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, GenerateRandomCode())
}

// Document number prefixes used across the procurement flow.
func GenerateQuoteNumber() string       { return GenerateDocumentNumber("QT") }
func GenerateRequisitionNumber() string { return GenerateDocumentNumber("PR") }
func GenerateRFQNumber() string         { return GenerateDocumentNumber("RFQ") }
func GeneratePONumber() string          { return GenerateDocumentNumber("PO") }
func GenerateInvoiceNumber() string     { return GenerateDocumentNumber("INV") }
