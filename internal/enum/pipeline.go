package enum

// PipelineStage tracks where a message is inside one processing run.
// Terminal stages are StagePersisted and StageFailed.
type PipelineStage string

const (
	StageFetched              PipelineStage = "fetched"
	StageParsing              PipelineStage = "parsing"
	StageAttachmentProcessing PipelineStage = "attachment_processing"
	StageFingerprinting       PipelineStage = "fingerprinting"
	StageDuplicateCheck       PipelineStage = "duplicate_check"
	StageClassifying          PipelineStage = "classifying"
	StageRouting              PipelineStage = "routing"
	StagePersisted            PipelineStage = "persisted"
	StageFailed               PipelineStage = "failed"
)

func (t PipelineStage) String() string {
	return string(t)
}

type RouteDecision string

const (
	RouteStoreOnly      RouteDecision = "store_only"
	RouteStoreAndNotify RouteDecision = "store_and_notify"
)

func (t RouteDecision) String() string {
	return string(t)
}

type EntityType string

const (
	EntityOrderNumber EntityType = "order_number"
	EntityAmount      EntityType = "amount"
	EntityDate        EntityType = "date"
	EntityProduct     EntityType = "product"
)

func (t EntityType) String() string {
	return string(t)
}
