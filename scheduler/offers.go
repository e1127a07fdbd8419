package scheduler

import (
	mesos "github.com/mesos/mesos-go/api/v0/mesosproto"
	"github.com/pkg/errors"
)

// OfferRecord is the canonical, serialization-ready form of a resource
// offer. Its JSON shape is the request body contract with the decision
// service and must not change without coordinating with it.
type OfferRecord struct {
	Attributes  []map[string]interface{} `json:"attributes"`
	ExecutorIDs []string                 `json:"executor_ids"`
	FrameworkID string                   `json:"framework_id"`
	Hostname    string                   `json:"hostname"`
	ID          string                   `json:"id"`
	Resources   map[string]interface{}   `json:"resources"`
	SlaveID     string                   `json:"slave_id"`
}

// NormalizeOffer flattens a Mesos offer into an OfferRecord. It is a pure
// transform: equal offers normalize to equal records. Duplicate resource
// names keep the last value seen.
func NormalizeOffer(offer *mesos.Offer) (*OfferRecord, error) {
	record := &OfferRecord{
		Attributes:  make([]map[string]interface{}, 0, len(offer.GetAttributes())),
		ExecutorIDs: make([]string, 0, len(offer.GetExecutorIds())),
		FrameworkID: offer.GetFrameworkId().GetValue(),
		Hostname:    offer.GetHostname(),
		ID:          offer.GetId().GetValue(),
		Resources:   make(map[string]interface{}, len(offer.GetResources())),
		SlaveID:     offer.GetSlaveId().GetValue(),
	}

	for _, attribute := range offer.GetAttributes() {
		name, value, err := DecodeAttribute(attribute)
		if err != nil {
			return nil, errors.WithMessagef(err, "offer %s", record.ID)
		}
		record.Attributes = append(record.Attributes, map[string]interface{}{name: value})
	}

	for _, resource := range offer.GetResources() {
		name, value, err := DecodeResource(resource)
		if err != nil {
			return nil, errors.WithMessagef(err, "offer %s", record.ID)
		}
		record.Resources[name] = value
	}

	for _, executorID := range offer.GetExecutorIds() {
		record.ExecutorIDs = append(record.ExecutorIDs, executorID.GetValue())
	}

	return record, nil
}
