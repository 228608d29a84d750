package handlers

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func fmtErr(subject string, sentinel error) error {
	return fmt.Errorf("%s %w", subject, sentinel)
}

func primitiveID(hex string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(hex)
}
