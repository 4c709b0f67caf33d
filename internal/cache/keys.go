package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/spigell/job-matcher/internal/model"
)

const keyPrefix = "job-matcher"

// UserSignature covers every preference field that changes a match result.
func UserSignature(u *model.UserPreferences) string {
	if u == nil {
		return ""
	}
	return strings.Join([]string{
		strings.ToLower(u.Email),
		string(u.SubscriptionTier),
		strings.ToLower(strings.Join(u.Cities(), ",")),
		strings.ToLower(strings.Join(u.Paths(), ",")),
		strings.ToLower(u.EntryLevelPreference),
		strings.ToLower(strings.Join(u.Keywords(), ",")),
	}, "|")
}

// JobsSignature is order sensitive: the same jobs in another order map to a
// different key because job indices in a batch depend on order.
func JobsSignature(jobs []*model.Job) string {
	hashes := make([]string, 0, len(jobs))
	for _, j := range jobs {
		if j != nil {
			hashes = append(hashes, j.JobHash)
		}
	}
	return strings.Join(hashes, ",")
}

// Key builds a namespaced sha256 key from the given parts.
func Key(namespace string, parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return keyPrefix + ":" + namespace + ":" + hex.EncodeToString(sum[:])
}

func MatchKey(u *model.UserPreferences, jobs []*model.Job) string {
	return Key("matches", UserSignature(u), JobsSignature(jobs))
}

func EmbeddingKey(signature string) string {
	return Key("embedding", signature)
}
