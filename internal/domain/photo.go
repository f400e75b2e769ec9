package domain

import "time"

type Photo struct {
	PhotoID    string    `json:"id"`
	ClubID     string    `json:"clubId"`
	URL        string    `json:"url"`
	Key        string    `json:"-"`
	Caption    string    `json:"caption"`
	UploadedBy string    `json:"uploadedBy"`
	CreatedAt  time.Time `json:"createdAt"`
}
