package model

import "time"

// UserAccount represents an identity record stored in the accounts table.
// Anonymous accounts carry no email and no password material.
type UserAccount struct {
	UserID              string    `json:"user_id" dynamodbav:"user_id"`
	Email               string    `json:"email" dynamodbav:"email"`
	PasswordHash        string    `json:"-" dynamodbav:"password_hash"`
	PasswordSalt        string    `json:"-" dynamodbav:"password_salt"`
	EncryptedCredential string    `json:"-" dynamodbav:"encrypted_credential"` // pre-provisioned credential, KMS-encrypted
	Anonymous           bool      `json:"anonymous" dynamodbav:"anonymous"`
	CreatedAt           time.Time `json:"created_at" dynamodbav:"created_at"`
}

// Template is an immutable catalog entry. The catalog is fixed at build time;
// templates have no create/update/delete lifecycle.
type Template struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	InitialContent string `json:"initialContent"`
}

// SavedDocumentRecord is a persisted copy of an edited document. Records are
// created by an explicit save and never mutated afterwards.
type SavedDocumentRecord struct {
	ID        string    `json:"id" dynamodbav:"id"`
	Title     string    `json:"title" dynamodbav:"title"`
	Content   string    `json:"content" dynamodbav:"content"`
	OwnerID   string    `json:"ownerId" dynamodbav:"owner_id"`
	CreatedAt time.Time `json:"createdAt" dynamodbav:"created_at"`
}
