package integration

import (
	"bytes"
	"io"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"

	"github.com/stacklok/phone-registry-server/internal/jobs"
	"github.com/stacklok/phone-registry-server/internal/provider"
	"github.com/stacklok/phone-registry-server/internal/service"
	"github.com/stacklok/phone-registry-server/test-integration/phone-registry/helpers"
)

func regulationTypes(regs []service.Regulation) []string {
	types := make([]string, 0, len(regs))
	for _, r := range regs {
		if r.NumberType == nil {
			types = append(types, "")
			continue
		}
		types = append(types, *r.NumberType)
	}
	return types
}

var _ = Describe("Phone Registry API", Ordered, func() {
	Context("Before any sync", func() {
		It("should report healthy and ready", func() {
			resp, err := serverHelper.Get("/health")
			Expect(err).NotTo(HaveOccurred())
			var health map[string]string
			Expect(helpers.DecodeJSON(resp, &health)).To(Succeed())
			Expect(health).To(HaveKeyWithValue("status", "healthy"))
		})

		It("should return 404 for regulations that were never synced", func() {
			resp, err := serverHelper.Get("/api/v1/regulations/GB")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))

			var body map[string]string
			Expect(helpers.DecodeJSON(resp, &body)).To(Succeed())
			Expect(body["error"]).To(ContainSubstring("Sync regulations first"))
		})
	})

	Context("Number type sync", func() {
		var job jobs.SyncJob

		BeforeAll(func() {
			id := serverHelper.TriggerSync("/api/v1/sync")
			job = serverHelper.WaitForJob(id, 30*time.Second)
		})

		It("should complete and count every country", func() {
			Expect(job.Status).To(Equal(jobs.StatusCompleted))
			Expect(job.Kind).To(Equal(jobs.KindNumberTypes))
			Expect(job.Total).NotTo(BeNil())
			Expect(*job.Total).To(Equal(3))
			Expect(job.Processed).To(Equal(3))
			Expect(job.CompletedAt).NotTo(BeNil())
		})

		It("should list the job", func() {
			resp, err := serverHelper.Get("/api/v1/sync?limit=5")
			Expect(err).NotTo(HaveOccurred())
			var list struct {
				Jobs []jobs.SyncJob `json:"jobs"`
			}
			Expect(helpers.DecodeJSON(resp, &list)).To(Succeed())
			Expect(list.Jobs).NotTo(BeEmpty())
			Expect(list.Jobs[0].ID).To(Equal(job.ID))
		})

		It("should list countries ordered by code", func() {
			resp, err := serverHelper.Get("/api/v1/countries")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var countries []service.Country
			Expect(helpers.DecodeJSON(resp, &countries)).To(Succeed())
			codes := make([]string, 0, len(countries))
			for _, c := range countries {
				codes = append(codes, c.CountryCode)
			}
			Expect(codes).To(Equal(twilio.CountryCodes()))
		})

		It("should filter countries by number type", func() {
			resp, err := serverHelper.Get("/api/v1/countries?number_type=mobile")
			Expect(err).NotTo(HaveOccurred())

			var countries []service.Country
			Expect(helpers.DecodeJSON(resp, &countries)).To(Succeed())
			Expect(countries).To(HaveLen(2))
			Expect(countries[0].CountryCode).To(Equal("DE"))
			Expect(countries[1].CountryCode).To(Equal("GB"))
		})

		It("should return one country with its flags", func() {
			resp, err := serverHelper.Get("/api/v1/countries/de")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var country service.Country
			Expect(helpers.DecodeJSON(resp, &country)).To(Succeed())
			Expect(country.Country).To(Equal("Germany"))
			Expect(country.Beta).To(BeTrue())
			Expect(country.NumberTypes).To(Equal(provider.NumberTypes{Mobile: true, National: true}))
		})

		It("should return 404 for an unknown country", func() {
			resp, err := serverHelper.Get("/api/v1/countries/ZZ")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			_ = resp.Body.Close()
		})
	})

	Context("Regulation sync", func() {
		var job jobs.SyncJob

		BeforeAll(func() {
			id := serverHelper.TriggerSync("/api/v1/sync/regulations")
			job = serverHelper.WaitForJob(id, 30*time.Second)
		})

		It("should complete", func() {
			Expect(job.Status).To(Equal(jobs.StatusCompleted))
			Expect(job.Kind).To(Equal(jobs.KindRegulations))
			Expect(job.Processed).To(Equal(3))
		})

		It("should return every business regulation of a country", func() {
			resp, err := serverHelper.Get("/api/v1/regulations/gb")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var regs []service.Regulation
			Expect(helpers.DecodeJSON(resp, &regs)).To(Succeed())
			Expect(regulationTypes(regs)).To(ConsistOf("local", "mobile", "toll_free"))
			for _, r := range regs {
				Expect(r.EndUserType).To(Equal(provider.EndUserTypeBusiness))
			}
		})

		It("should restrict regulations to available number types", func() {
			resp, err := serverHelper.Get("/api/v1/regulations/GB?only_available_types=true")
			Expect(err).NotTo(HaveOccurred())

			var regs []service.Regulation
			Expect(helpers.DecodeJSON(resp, &regs)).To(Succeed())
			Expect(regulationTypes(regs)).To(ConsistOf("local", "mobile"))
		})

		It("should reject an invalid boolean", func() {
			resp, err := serverHelper.Get("/api/v1/regulations/GB?only_available_types=maybe")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			_ = resp.Body.Close()
		})

		It("should export the regulations as a workbook", func() {
			resp, err := serverHelper.Get("/api/v1/regulations/GB/export?number_type=mobile")
			Expect(err).NotTo(HaveOccurred())
			defer func() {
				_ = resp.Body.Close()
			}()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Disposition")).To(Equal(`attachment; filename="regulations_GB_mobile.xlsx"`))

			data, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())

			f, err := excelize.OpenReader(bytes.NewReader(data))
			Expect(err).NotTo(HaveOccurred())
			defer func() {
				_ = f.Close()
			}()
			Expect(f.GetSheetList()).To(Equal([]string{"United Kingdom_ Mobile - Business"}))

			title, err := f.GetCellValue("United Kingdom_ Mobile - Business", "A1")
			Expect(err).NotTo(HaveOccurred())
			Expect(title).To(Equal("United Kingdom: Mobile - Business"))
		})

		It("should return 404 when exporting a country without regulations", func() {
			resp, err := serverHelper.Get("/api/v1/regulations/DE/export")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			_ = resp.Body.Close()
		})
	})

	Context("Live number search", func() {
		It("should return available numbers with normalized capabilities", func() {
			resp, err := serverHelper.Post("/api/v1/numbers/search",
				`{"country_code":"gb","number_type":"mobile","sms_enabled":true}`)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var numbers []provider.AvailableNumber
			Expect(helpers.DecodeJSON(resp, &numbers)).To(Succeed())
			Expect(numbers).To(HaveLen(1))
			Expect(numbers[0].Capabilities).NotTo(BeNil())
			Expect(numbers[0].Capabilities.SMS).To(HaveValue(BeTrue()))
			Expect(numbers[0].Latitude).To(HaveValue(BeNumerically("~", 51.5072, 1e-6)))
		})

		DescribeTable("should map provider failures",
			func(body string, wantStatus int) {
				resp, err := serverHelper.Post("/api/v1/numbers/search", body)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(wantStatus))
				_ = resp.Body.Close()
			},
			Entry("rate limited", `{"country_code":"JP","number_type":"local"}`, http.StatusTooManyRequests),
			Entry("unknown country", `{"country_code":"ZZ","number_type":"local"}`, http.StatusBadRequest),
			Entry("unsupported type", `{"country_code":"GB","number_type":"national"}`, http.StatusBadRequest),
		)
	})
})
