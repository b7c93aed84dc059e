package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
)

const (
	lotterySeed = "lottery"
	ticketSeed  = "ticket"
	custodySeed = "custody"
	accountSeed = "account"
)

// ContentKey hashes the given parts into a stable hex identifier.
// Parts are length-prefixed so ("ab","c") and ("a","bc") never collide.
func ContentKey(parts ...[]byte) string {
	h := sha256.New()
	var prefix [8]byte
	for _, p := range parts {
		binary.LittleEndian.PutUint64(prefix[:], uint64(len(p)))
		h.Write(prefix[:])
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// LotteryID derives the lottery record id from its creator and prize
func LotteryID(creator, prizeReference string) string {
	return ContentKey([]byte(lotterySeed), []byte(creator), []byte(prizeReference))
}

// EntryID derives the entry record id from its lottery and entry number
func EntryID(lotteryID string, entryNumber uint64) string {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], entryNumber)
	return ContentKey([]byte(ticketSeed), []byte(lotteryID), n[:])
}

// CustodyAuthority derives the non-secret authority key that controls the
// escrow account of a lottery
func CustodyAuthority(lotteryID string) string {
	return ContentKey([]byte(lotteryID), []byte(custodySeed))
}

// AccountID derives the id of a ledger account opened by controller under
// label. The derivation keeps opened accounts apart from user identities and
// custody keys.
func AccountID(controller, label string) string {
	return ContentKey([]byte(accountSeed), []byte(controller), []byte(label))
}

// GenerateRandomString generates a random string of the specified length
func GenerateRandomString(length int) (string, error) {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b)[:length], nil
}

// MaskIdentity shortens an identity for log output
func MaskIdentity(identity string) string {
	if len(identity) <= 8 {
		return identity
	}
	return identity[:4] + "..." + identity[len(identity)-4:]
}
