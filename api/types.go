package main

// Response DTOs. Shapes follow the original reporting API.

type idResp struct {
	ID int64 `json:"id"`
}

type uuidResp struct {
	UUID string `json:"uuid"`
}

type messageResp struct {
	Message string `json:"message"`
}

type datasetResp struct {
	Data string `json:"data"`
}
