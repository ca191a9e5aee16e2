package processing

import (
	"k8s.io/apimachinery/pkg/runtime"

	"github.com/nok-base/consul-sync/internal/domain/entity"
)

const (
	readyConditionType   = "Ready"
	readyConditionStatus = "True"
)

// IsReady looks for a Ready=True condition in status.conditions.
// Malformed conditions never match.
func IsReady(status map[string]interface{}) bool {
	for _, condition := range conditions(status) {
		if condition.Type == readyConditionType && condition.Status == readyConditionStatus {
			return true
		}
	}

	return false
}

// conditions decodes every well formed entry of status.conditions, skipping the others.
func conditions(status map[string]interface{}) []entity.Condition {
	raw, ok := status["conditions"].([]interface{})
	if !ok {
		return nil
	}

	ret := make([]entity.Condition, 0, len(raw))

	for _, item := range raw {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		condition := entity.Condition{}

		err := runtime.DefaultUnstructuredConverter.FromUnstructured(obj, &condition)
		if err != nil {
			continue
		}

		ret = append(ret, condition)
	}

	return ret
}
