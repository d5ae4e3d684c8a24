package models

// OrphanedAsset is an object-store key whose best-effort deletion failed.
// The asset worker retries it until the object is gone.
type OrphanedAsset struct {
	BaseModel
	Key       string `gorm:"uniqueIndex;not null"`
	Reason    string `gorm:"not null"`
	Attempts  int    `gorm:"not null;default:0"`
	LastError string `gorm:"type:text"`
}
