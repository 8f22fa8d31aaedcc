package mongo

const (
	store       = "asrjobs"
	statusTable = "status"
)

var indexData = []IndexData{
	newIndexData(statusTable, "jobName", true),
	newIndexData(statusTable, "updated", false)}
