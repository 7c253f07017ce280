package process_test

import (
	"appbase/domain/process"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("ProcessManagement", func() {
	var (
		pm *process.ProcessManagement
	)

	BeforeEach(func() {
		//         draft        review        approved
		// draft     -            V (submit)    -
		// review    V (reject)   -             V (approve)
		// approved  -            -             -
		pm = &process.ProcessManagement{
			Enabled: true,
			Statuses: []process.Status{
				{Name: "draft"},
				{Name: "review", Assignee: &process.Assignee{
					Type: process.AssigneeTypeUsers, Selection: process.SelectionSingle, UserIDs: []string{"20", "30"}}},
				{Name: "approved"},
			},
			Actions: []process.Action{
				{Name: "submit", From: "draft", To: "review"},
				{Name: "reject", From: "review", To: "draft"},
				{Name: "approve", From: "review", To: "approved"},
			},
		}
	})

	Describe("FindStatus", func() {
		Context("with the draft-review-approved configuration", func() {
			It("should find configured statuses by name", func() {
				status, found := pm.FindStatus("review")
				Expect(found).To(BeTrue())
				Expect(status.Assignee.UserIDs).To(Equal([]string{"20", "30"}))

				_, found = pm.FindStatus("unknown")
				Expect(found).To(BeFalse())
			})
		})
	})

	Describe("FirstStatusName", func() {
		It("should return the first configured status as the initial one", func() {
			Ω(pm.FirstStatusName()).Should(Equal("draft"))
			Ω((*process.ProcessManagement)(nil).FirstStatusName()).Should(Equal(""))
		})
	})

	Describe("IsTerminalStatus", func() {
		It("should treat a status without outgoing actions as terminal", func() {
			Ω(process.IsTerminalStatus(pm, "approved")).Should(BeTrue())
			Ω(process.IsTerminalStatus(pm, "draft")).Should(BeFalse())
			Ω(process.IsTerminalStatus(pm, "review")).Should(BeFalse())
		})
	})

	Describe("Value", func() {
		It("should serialize the stored column with snake_case keys", func() {
			value, err := pm.Value()
			Expect(err).To(BeNil())
			Expect(value.(string)).To(MatchJSON(`{
				"enabled": true,
				"statuses": [
					{"name": "draft"},
					{"name": "review", "assignee": {"type": "users", "selection": "single", "user_ids": ["20", "30"]}},
					{"name": "approved"}
				],
				"actions": [
					{"name": "submit", "from": "draft", "to": "review"},
					{"name": "reject", "from": "review", "to": "draft"},
					{"name": "approve", "from": "review", "to": "approved"}
				]
			}`))

			restored := process.ProcessManagement{}
			Expect(restored.Scan(value)).To(BeNil())
			Expect(restored).To(Equal(*pm))
		})
	})
})
