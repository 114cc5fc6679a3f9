// Copyright (C) 2025-2026, the multi-sig-wallet authors. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var actionsProposed = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "multisig_actions_proposed",
	},
)

var approvalsQuantity = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "multisig_approvals",
	},
	[]string{
		"op",
	},
)

var executionsQuantity = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "multisig_executions",
	},
	[]string{
		"result",
	},
)

var signersGauge = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "multisig_signers",
	},
)

var thresholdGauge = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "multisig_threshold",
	},
)

func ActionProposed() {
	actionsProposed.Inc()
}

func ActionApproved() {
	approvalsQuantity.With(map[string]string{"op": "approve"}).Inc()
}

func ApprovalRevoked() {
	approvalsQuantity.With(map[string]string{"op": "revoke"}).Inc()
}

func ActionExecuted(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	executionsQuantity.With(map[string]string{"result": result}).Inc()
}

func SetSigners(count int) {
	signersGauge.Set(float64(count))
}

func SetThreshold(required int) {
	thresholdGauge.Set(float64(required))
}
