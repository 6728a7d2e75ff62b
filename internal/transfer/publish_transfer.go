package transfer

type PublishRequest struct {
	DraftID          int64    `json:"draft_id"`
	Schedule         bool     `json:"schedule"`
	PublishToWebsite bool     `json:"publish_to_website"`
	PublishToSocial  bool     `json:"publish_to_social"`
	Platforms        []string `json:"platforms"`
	DryRun           bool     `json:"dry_run"`
}

type PublishAllRequest struct {
	BrandID          int64    `json:"brand_id"`
	Schedule         bool     `json:"schedule"`
	PublishToWebsite bool     `json:"publish_to_website"`
	PublishToSocial  bool     `json:"publish_to_social"`
	Platforms        []string `json:"platforms"`
	DryRun           bool     `json:"dry_run"`
}

type GenerateRequest struct {
	Limit       int  `json:"limit"`
	AutoApprove bool `json:"auto_approve"`
	Schedule    bool `json:"schedule"`
}

type ApproveRequest struct {
	Threshold float64 `json:"threshold"`
}

type DraftActionRequest struct {
	DraftID int64 `json:"draft_id"`
}

type DiscoverRequest struct {
	BrandID int64 `json:"brand_id"`
	Limit   int   `json:"limit"`
}

type CleanupRequest struct {
	DaysOld int `json:"days_old"`
}

type ConnectorRemoveRequest struct {
	ConnectorID int64 `json:"connector_id"`
}
