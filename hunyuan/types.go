package hunyuan

// StatusPayload is the raw job status returned by QueryHunyuanTo3DJob.
// Older API revisions report the status under JobStatus instead of
// Status, so both are kept.
type StatusPayload struct {
	Status        string       `json:"Status"`
	JobStatus     string       `json:"JobStatus"`
	ErrorMessage  string       `json:"ErrorMessage"`
	ResultFile3Ds []ResultFile `json:"ResultFile3Ds"`
	RequestID     string       `json:"RequestId"`
}

// ResultFile is one entry of the result-files list.
type ResultFile struct {
	Type string `json:"Type"`
	// URL matches both the "Url" and "URL" casings seen in responses;
	// encoding/json falls back to a case-insensitive match.
	URL          string `json:"Url"`
	PreviewImage string `json:"PreviewImageUrl"`
}

// StatusValue returns whichever status field the provider populated.
func (p *StatusPayload) StatusValue() string {
	if p.Status != "" {
		return p.Status
	}
	return p.JobStatus
}

// FirstResultURL returns the download URL of the first result file, or
// "" when none is usable.
func (p *StatusPayload) FirstResultURL() string {
	for _, file := range p.ResultFile3Ds {
		if file.URL != "" {
			return file.URL
		}
	}
	return ""
}

type submitResponse struct {
	JobID     string `json:"JobId"`
	Status    string `json:"Status"`
	RequestID string `json:"RequestId"`
}
