package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// ContainsID reports whether id is in ids.
func ContainsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// UniqueIDs drops duplicates while keeping first-seen order.
func UniqueIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if !ContainsID(out, id) {
			out = append(out, id)
		}
	}
	return out
}

// DiffIDs returns the ids in a that are not in b.
func DiffIDs(a, b []primitive.ObjectID) []primitive.ObjectID {
	var out []primitive.ObjectID
	for _, id := range a {
		if !ContainsID(b, id) {
			out = append(out, id)
		}
	}
	return out
}

// ParseIDs converts hex strings to ObjectIDs, failing on the first bad value.
func ParseIDs(hexes []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		id, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
