package oracle

// Stage names a state of the oracle machine. Every message is tagged with the
// stage of its sender.
type Stage string

const (
	// WaitForEpochChange answers catch-up requests until the epoch changes.
	WaitForEpochChange Stage = "S0_WAIT_FOR_EPOCH_CHANGE"
	// ComputeLocalTable decides participation and builds the LocalTable.
	ComputeLocalTable Stage = "S1_COMPUTE_LOCAL_TABLE"
	// SendLocalTable exchanges LocalTables.
	SendLocalTable Stage = "S2_SEND_LOCAL_TABLE"
	// ComputeMedianTable signs the per-node medians.
	ComputeMedianTable Stage = "S3_COMPUTE_MEDIAN_TABLE"
	// SendMedianTable exchanges MedianTables.
	SendMedianTable Stage = "S4_SEND_MEDIAN_TABLE"
	// ComputeAgreedMedianTable selects the per-node majority.
	ComputeAgreedMedianTable Stage = "S5_COMPUTE_AGREED_MEDIAN_TABLE"
	// SendAgreedMedianTable exchanges AgreedTables.
	SendAgreedMedianTable Stage = "S6_SEND_AGREED_MEDIAN_TABLE"
	// UpdateEpochSource commits the AgreedTable.
	UpdateEpochSource Stage = "S7_UPDATE_EPOCH_SOURCE"
	// RequestAgreedMedianTable collects AgreedTables missed by this oracle.
	RequestAgreedMedianTable Stage = "S8_REQUEST_AGREED_MEDIAN_TABLE"
	// ComputeRequestedAgreedMedianTable commits the collected AgreedTables.
	ComputeRequestedAgreedMedianTable Stage = "S9_COMPUTE_REQUESTED_AGREED_MEDIAN_TABLE"
)

// Stages lists every stage in order.
var Stages = []Stage{
	WaitForEpochChange,
	ComputeLocalTable,
	SendLocalTable,
	ComputeMedianTable,
	SendMedianTable,
	ComputeAgreedMedianTable,
	SendAgreedMedianTable,
	UpdateEpochSource,
	RequestAgreedMedianTable,
	ComputeRequestedAgreedMedianTable,
}

// String ...
func (s Stage) String() string {
	return string(s)
}
