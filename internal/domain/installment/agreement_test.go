package installment

import (
	"testing"

	"github.com/practicedesk/billing/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestAgreementRefOwns(t *testing.T) {
	ref := AgreementRef{
		ParentID:   "client_ana",
		ClientName: "Ana",
		Kind:       types.InstallmentKindMonthly,
	}

	tests := []struct {
		name string
		inst *Installment
		want bool
	}{
		{
			name: "nil",
			inst: nil,
			want: false,
		},
		{
			name: "same parent",
			inst: &Installment{ID: "anything", ParentID: "client_ana", ClientName: "Someone", Kind: types.InstallmentKindWeekly},
			want: true,
		},
		{
			name: "other parent with matching name",
			inst: &Installment{ID: "client_ana-monthly-1", ParentID: "client_bruno", ClientName: "Ana", Kind: types.InstallmentKindMonthly},
			want: false,
		},
		{
			name: "legacy generated id",
			inst: &Installment{ID: "client_ana-monthly-2", ClientName: "Renamed", Kind: types.InstallmentKindMonthly},
			want: true,
		},
		{
			name: "legacy id merely containing the parent",
			inst: &Installment{ID: "x-client_ana-monthly-2", ClientName: "Bruno", Kind: types.InstallmentKindMonthly},
			want: false,
		},
		{
			name: "legacy id sharing a longer parent prefix",
			inst: &Installment{ID: "client_anabel-monthly-1", ClientName: "Anabel", Kind: types.InstallmentKindMonthly},
			want: false,
		},
		{
			name: "legacy name and kind",
			inst: &Installment{ID: "manual-1", ClientName: "  ANA ", Kind: types.InstallmentKindMonthly},
			want: true,
		},
		{
			name: "legacy name with another kind",
			inst: &Installment{ID: "manual-2", ClientName: "Ana", Kind: types.InstallmentKindWeekly},
			want: false,
		},
		{
			name: "ad hoc installment of the client",
			inst: &Installment{ID: "inst_01HZX3K6N6T0Q5E4B7Y8W9V2C1", ClientName: "Ana", Kind: types.InstallmentKindMonthly},
			want: false,
		},
		{
			name: "blank parent id is legacy",
			inst: &Installment{ID: "manual-3", ParentID: "  ", ClientName: "Ana", Kind: types.InstallmentKindMonthly},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ref.Owns(tt.inst))
		})
	}
}

func TestAgreementRefWithoutKindMatchesAnyKind(t *testing.T) {
	ref := AgreementRef{ParentID: "client_ana", ClientName: "Ana"}

	tests := []struct {
		name string
		inst *Installment
		want bool
	}{
		{
			name: "legacy monthly",
			inst: &Installment{ID: "manual-1", ClientName: "Ana", Kind: types.InstallmentKindMonthly},
			want: true,
		},
		{
			name: "legacy weekly",
			inst: &Installment{ID: "manual-2", ClientName: " ana ", Kind: types.InstallmentKindWeekly},
			want: true,
		},
		{
			name: "legacy of another client",
			inst: &Installment{ID: "manual-3", ClientName: "Bruno", Kind: types.InstallmentKindWeekly},
			want: false,
		},
		{
			name: "ad hoc",
			inst: &Installment{ID: "inst_01HZX3K6N6T0Q5E4B7Y8W9V2C1", ClientName: "Ana", Kind: types.InstallmentKindMonthly},
			want: false,
		},
		{
			name: "linked to another parent",
			inst: &Installment{ID: "x-1", ParentID: "client_bruno", ClientName: "Ana", Kind: types.InstallmentKindWeekly},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ref.Owns(tt.inst))
		})
	}

	blankName := AgreementRef{ParentID: "client_ana"}
	assert.False(t, blankName.Owns(&Installment{ID: "manual-4", Kind: types.InstallmentKindMonthly}))
}

func TestIsAdHoc(t *testing.T) {
	assert.True(t, (&Installment{ID: "inst_01HZX3K6N6T0Q5E4B7Y8W9V2C1"}).IsAdHoc())
	assert.False(t, (&Installment{ID: "inst_01HZX3K6N6T0Q5E4B7Y8W9V2C1", ParentID: "client_ana"}).IsAdHoc())
	assert.False(t, (&Installment{ID: "client_ana-monthly-1"}).IsAdHoc())
}

func TestGeneratedIDAndLabel(t *testing.T) {
	inst := &Installment{
		ID:         GeneratedID("client_ana", types.InstallmentKindWeekly, 3),
		Sequence:   3,
		TotalCount: 12,
	}
	assert.Equal(t, "client_ana-weekly-3", inst.ID)
	assert.Equal(t, "3/12", inst.Label())
}

func TestCloneAllSkipsNil(t *testing.T) {
	orig := &Installment{ID: "a"}
	clones := CloneAll([]*Installment{orig, nil})

	assert.Len(t, clones, 1)
	clones[0].Settled = true
	assert.False(t, orig.Settled)
}
