package service

import "errors"

// Notices shown to the student for each non-fatal failure.
const (
	NoticeIdentityRequired = "فضلاً أدخلي رقم الطالب أولاً."
	NoticeFileTypes        = "في ملفات غير مسموح بها. الصيغ المدعومة: PDF, DOCX, PPTX, XLSX, ZIP, JPG, PNG (وأيضًا DOC/PPT/XLS)."
	NoticeNothingStaged    = "اختاري ملفات أولاً."
	NoticeInquiry          = "أدخلي رقم الطالب وموضوع الرسالة ونصها."
	NoticeUploaded         = "تم رفع الملفات."
	NoticeInquirySent      = "تم إرسال الاستفسار."
)

// Notice returns the student-facing text for err, or "" when err has none.
func Notice(err error) string {
	switch {
	case errors.Is(err, ErrIdentityRequired):
		return NoticeIdentityRequired
	case errors.Is(err, ErrFileTypeNotAllowed):
		return NoticeFileTypes
	case errors.Is(err, ErrNoFilesChosen), errors.Is(err, ErrNothingStaged):
		return NoticeNothingStaged
	case errors.Is(err, ErrInquiryIncomplete):
		return NoticeInquiry
	}
	return ""
}
