package models

// UpdateNotification tells other open clients that the menu changed.
type UpdateNotification struct {
	Type        string                  `json:"type"`
	Timestamp   int64                   `json:"timestamp"`
	Source      string                  `json:"source,omitempty"`
	InstanceID  string                  `json:"instanceId,omitempty"`
	ItemChanges map[int64]MenuItemPatch `json:"itemChanges,omitempty"`
}

// BroadcastMessage is the reduced payload sent on the broadcast topic.
type BroadcastMessage struct {
	Type       string `json:"type"`
	Timestamp  int64  `json:"timestamp"`
	InstanceID string `json:"instanceId,omitempty"`
}
