package redis

import (
	"fmt"

	"github.com/mcoot/paradox/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "paradox"

func identityKey(id model.IdentityID) string {
	return fmt.Sprintf("%s:identity:%s", keyPrefix, id)
}

func playerKey(id model.IdentityID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// hintsKey holds the hint ledger entry, stored apart from the player state
func hintsKey(id model.IdentityID) string {
	return fmt.Sprintf("%s:hints:%s", keyPrefix, id)
}

func referralKey(id model.IdentityID) string {
	return fmt.Sprintf("%s:referral:%s", keyPrefix, id)
}

// emailIndexKey maps an email to its identity id
func emailIndexKey(email string) string {
	return fmt.Sprintf("%s:idx:email:%s", keyPrefix, email)
}

// referralCodeIndexKey maps a referral code to its issuer's identity id
func referralCodeIndexKey(code string) string {
	return fmt.Sprintf("%s:idx:refcode:%s", keyPrefix, code)
}

// playersIndexKey is the SET of all registered identity ids
func playersIndexKey() string {
	return fmt.Sprintf("%s:idx:players", keyPrefix)
}

// aggregateKeys returns every key a unit of work over ids reads or writes
func aggregateKeys(ids []model.IdentityID) []string {
	keys := make([]string, 0, 3*len(ids))
	for _, id := range ids {
		keys = append(keys, playerKey(id), hintsKey(id), referralKey(id))
	}
	return keys
}

func questionKey(level int) string {
	return fmt.Sprintf("%s:question:%d", keyPrefix, level)
}

func questionsIndexKey() string {
	return fmt.Sprintf("%s:idx:questions", keyPrefix)
}

func hintSetKey(level int) string {
	return fmt.Sprintf("%s:hintset:%d", keyPrefix, level)
}

func hintSetsIndexKey() string {
	return fmt.Sprintf("%s:idx:hintsets", keyPrefix)
}

func memberKey(id model.MemberID) string {
	return fmt.Sprintf("%s:member:%s", keyPrefix, id)
}

// membersIndexKey is a LIST of member ids in insertion order
func membersIndexKey() string {
	return fmt.Sprintf("%s:idx:members", keyPrefix)
}
