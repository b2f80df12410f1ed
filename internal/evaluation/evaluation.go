// Package evaluation scores binary approval predictions against known labels.
package evaluation

import (
	"fmt"
	"loanapproval/pkg/domain"
	"loanapproval/pkg/metrics"
	"loanapproval/pkg/serrors"
	"strings"
)

// Evaluate computes accuracy, the confusion matrix and precision, recall and F1
// of the approved class.
func Evaluate(yTrue, yPred []domain.Label) (domain.EvaluationMetrics, error) {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return domain.EvaluationMetrics{}, serrors.With(serrors.ErrInsufficientData,
			"evaluation needs matching labels, got %d true and %d predicted", len(yTrue), len(yPred))
	}

	var m domain.EvaluationMetrics
	for i := range yTrue {
		m.Confusion[yTrue[i]][yPred[i]]++
	}
	m.Support = len(yTrue)

	tp := m.Confusion[domain.LabelApproved][domain.LabelApproved]
	tn := m.Confusion[domain.LabelRejected][domain.LabelRejected]
	m.Accuracy = float64(tp+tn) / float64(m.Support)
	m.Precision, m.Recall, m.F1 = classScores(m.Confusion, domain.LabelApproved)

	return m, nil
}

// classScores returns precision, recall and F1 of class c. Undefined ratios are 0.
func classScores(cm domain.ConfusionMatrix, c domain.Label) (float64, float64, float64) {
	other := 1 - c
	tp := cm[c][c]
	fp := cm[other][c]
	fn := cm[c][other]

	var precision, recall, f1 float64
	if tp+fp > 0 {
		precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		recall = float64(tp) / float64(tp+fn)
	}
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}

	return precision, recall, f1
}

// Report renders a per-class classification report followed by the confusion
// matrix.
func Report(m domain.EvaluationMetrics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%12s %10s %10s %10s %10s\n", "", "precision", "recall", "f1-score", "support")
	for _, c := range []domain.Label{domain.LabelRejected, domain.LabelApproved} {
		p, r, f := classScores(m.Confusion, c)
		support := m.Confusion[c][0] + m.Confusion[c][1]
		fmt.Fprintf(&b, "%12s %10.2f %10.2f %10.2f %10d\n", c.Decision(), p, r, f, support)
	}
	fmt.Fprintf(&b, "\n%12s %10s %10s %10.2f %10d\n", "accuracy", "", "", m.Accuracy, m.Support)
	fmt.Fprintf(&b, "\nconfusion matrix (rows actual, columns predicted)\n")
	fmt.Fprintf(&b, "%12s %10s %10s\n", "", "Rejected", "Approved")
	for _, c := range []domain.Label{domain.LabelRejected, domain.LabelApproved} {
		fmt.Fprintf(&b, "%12s %10d %10d\n", c.Decision(), m.Confusion[c][0], m.Confusion[c][1])
	}

	return b.String()
}

// Publish exposes m on the model evaluation gauges.
func Publish(m domain.EvaluationMetrics) {
	metrics.Evaluation.WithLabelValues("accuracy").Set(m.Accuracy)
	metrics.Evaluation.WithLabelValues("precision").Set(m.Precision)
	metrics.Evaluation.WithLabelValues("recall").Set(m.Recall)
	metrics.Evaluation.WithLabelValues("f1").Set(m.F1)
}
