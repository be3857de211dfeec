package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// NewID returns a fresh object id in its 24-character hex form. Every store backend
// uses this format so identifiers can be validated before any store access.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

func IsValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}
