package model

import (
	"testing"
)

// ==================== 动作推导 ====================

func TestAllowedActionsSeller(t *testing.T) {
	cases := []struct {
		name      string
		status    string
		delivery  string
		confirmed bool
		want      []OrderAction
	}{
		{"待确认可发货", OrderStatusPending, DeliveryShipping, false, []OrderAction{ActionShip}},
		{"已确认可发货", OrderStatusConfirmed, DeliveryShipping, false, []OrderAction{ActionShip}},
		{"备货中不可操作", OrderStatusProcessing, DeliveryShipping, false, nil},
		{"快递已发货无动作", OrderStatusShipped, DeliveryShipping, false, nil},
		{"当面交付已发货可标记送达", OrderStatusShipped, DeliveryLocal, false, []OrderAction{ActionMarkDelivered}},
		{"已送达无动作", OrderStatusDelivered, DeliveryLocal, false, nil},
		{"已完成无动作", OrderStatusCompleted, DeliveryShipping, false, nil},
		{"已取消无动作", OrderStatusCancelled, DeliveryShipping, false, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := AllowedActions(tc.status, tc.delivery, RoleSeller, tc.confirmed)
			assertActions(t, got, tc.want)
		})
	}
}

func TestAllowedActionsBuyer(t *testing.T) {
	cases := []struct {
		name      string
		status    string
		confirmed bool
		want      []OrderAction
	}{
		{"待确认无动作", OrderStatusPending, false, nil},
		{"已发货可确认收货", OrderStatusShipped, false, []OrderAction{ActionConfirmReceipt}},
		{"已送达可确认收货", OrderStatusDelivered, false, []OrderAction{ActionConfirmReceipt}},
		{"已确认过收货不再出现", OrderStatusDelivered, true, nil},
		{"已完成可评价", OrderStatusCompleted, false, []OrderAction{ActionLeaveReview}},
		{"争议中无动作", OrderStatusDisputed, false, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := AllowedActions(tc.status, DeliveryShipping, RoleBuyer, tc.confirmed)
			assertActions(t, got, tc.want)
		})
	}
}

func assertActions(t *testing.T, got, want []OrderAction) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("动作数量不符: 期望 %v 实际 %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("动作不符: 期望 %v 实际 %v", want, got)
		}
	}
}

// ==================== 进度推导 ====================

func TestStatusStep(t *testing.T) {
	cases := map[string]int{
		OrderStatusPending:    1,
		OrderStatusConfirmed:  1,
		OrderStatusProcessing: 2,
		OrderStatusShipped:    3,
		OrderStatusDelivered:  4,
		OrderStatusCompleted:  5,
		OrderStatusCancelled:  0,
		OrderStatusRefunded:   0,
		OrderStatusDisputed:   0,
		"unknown":             0,
	}
	for status, want := range cases {
		if got := StatusStep(status); got != want {
			t.Errorf("StatusStep(%s) = %d, 期望 %d", status, got, want)
		}
	}
}

func TestStatusProgress(t *testing.T) {
	if p := StatusProgress(OrderStatusShipped); p != 0.75 {
		t.Fatalf("shipped 进度应为 0.75, 实际 %v", p)
	}
	// completed 是 5/4，必须封顶到 1.0
	if p := StatusProgress(OrderStatusCompleted); p != 1.0 {
		t.Fatalf("completed 进度应封顶 1.0, 实际 %v", p)
	}
	if p := StatusProgress(OrderStatusCancelled); p != 0 {
		t.Fatalf("cancelled 进度应为 0, 实际 %v", p)
	}
}

func TestStatusLabel(t *testing.T) {
	if got := StatusLabel(OrderStatusShipped); got != "Expédiée" {
		t.Fatalf("shipped 文案不符: %s", got)
	}
	// 未知状态回退到 pending 文案
	if got := StatusLabel("mystery"); got != StatusLabels[OrderStatusPending] {
		t.Fatalf("未知状态应回退 pending 文案, 实际 %s", got)
	}
}
