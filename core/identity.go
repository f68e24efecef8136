package core

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
)

// identityPrefixRunes is how much of the question and answer form an article identity.
const identityPrefixRunes = 100

// ArticleIdentity derives the ledger key for a question/answer pair:
// the first 100 characters of each, joined by an underscore.
// Articles sharing both prefixes share feedback.
func ArticleIdentity(question, answer string) string {
	return prefixRunes(question, identityPrefixRunes) + "_" + prefixRunes(answer, identityPrefixRunes)
}

func prefixRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// Fingerprint generates a deterministic 64-bit digest of text using BLAKE2b.
func Fingerprint(text string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	return binary.LittleEndian.Uint64(h.Sum(nil))
}

// CorpusDigest fingerprints the embedding texts of a corpus in order.
func CorpusDigest(articles []*Article) uint64 {
	h, _ := blake2b.New(8, nil)
	var lenBuf [8]byte
	for _, a := range articles {
		text := a.EmbeddingText()
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(text)))
		h.Write(lenBuf[:])
		h.Write([]byte(text))
	}
	return binary.LittleEndian.Uint64(h.Sum(nil))
}
