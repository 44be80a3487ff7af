package edge

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/jpeg"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dunamismax/pixeledge/internal/storage"
	"github.com/dunamismax/pixeledge/internal/transform"
)

const testDomain = "photos.s3.eu-west-1.amazonaws.com"

func TestHandlePassthroughNon200(t *testing.T) {
	fetcher := &fakeFetcher{}
	handler, _ := newTestHandler(fetcher, &fakeExecutor{})

	event := originResponseEvent("403", s3Origin(testDomain), "/cat.jpg", "width=100", nil)
	resp, err := handler.Handle(context.Background(), event)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	assertPassthrough(t, resp, "403")
	if fetcher.calls != 0 {
		t.Fatalf("expected no fetch for ineligible status, got %d", fetcher.calls)
	}
}

func TestHandlePassthroughNonStorageOrigin(t *testing.T) {
	fetcher := &fakeFetcher{}
	handler, _ := newTestHandler(fetcher, &fakeExecutor{})

	for _, origin := range []*Origin{
		nil,
		{Custom: &CustomOrigin{DomainName: "cdn.example.com"}},
		s3Origin("uploads.example.com"),
	} {
		event := originResponseEvent("200", origin, "/cat.jpg", "width=100", nil)
		resp, err := handler.Handle(context.Background(), event)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		assertPassthrough(t, resp, "200")
	}

	if fetcher.calls != 0 {
		t.Fatalf("expected no fetch without a storage origin, got %d", fetcher.calls)
	}
}

func TestHandlePassthroughIneligibleContentType(t *testing.T) {
	for _, contentType := range []string{"text/html", "application/pdf", "image/svg+xml", ""} {
		fetcher := &fakeFetcher{obj: storage.Object{ContentType: contentType, Body: []byte("payload")}}
		executor := &fakeExecutor{}
		handler, _ := newTestHandler(fetcher, executor)

		event := originResponseEvent("200", s3Origin(testDomain), "/doc", "width=100", nil)
		resp, err := handler.Handle(context.Background(), event)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		assertPassthrough(t, resp, "200")
		if executor.calls != 0 {
			t.Fatalf("content type %q: expected no transform, got %d calls", contentType, executor.calls)
		}
	}
}

func TestHandlePassthroughAnimatedGIF(t *testing.T) {
	fetcher := &fakeFetcher{obj: storage.Object{ContentType: transform.MIMEGIF, Body: buildGIFFrames(t, 3)}}
	executor := &fakeExecutor{}
	handler, _ := newTestHandler(fetcher, executor)

	event := originResponseEvent("200", s3Origin(testDomain), "/anim.gif", "width=50&format=png", nil)
	resp, err := handler.Handle(context.Background(), event)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	assertPassthrough(t, resp, "200")
	if executor.calls != 0 {
		t.Fatalf("expected animated gif to bypass transform, got %d calls", executor.calls)
	}
}

func TestHandlePassthroughOriginalGIF(t *testing.T) {
	fetcher := &fakeFetcher{obj: storage.Object{ContentType: transform.MIMEGIF, Body: buildGIFFrames(t, 1)}}
	executor := &fakeExecutor{}
	handler, _ := newTestHandler(fetcher, executor)

	event := originResponseEvent("200", s3Origin(testDomain), "/still.gif", "format=original&width=50", nil)
	resp, err := handler.Handle(context.Background(), event)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	assertPassthrough(t, resp, "200")
	if executor.calls != 0 {
		t.Fatalf("expected format=original gif to bypass transform, got %d calls", executor.calls)
	}
}

func TestHandleNoopPassthrough(t *testing.T) {
	fetcher := &fakeFetcher{obj: storage.Object{ContentType: transform.MIMEJPEG, Body: buildJPEG(t, 300, 200)}}
	executor := &fakeExecutor{}
	handler, _ := newTestHandler(fetcher, executor)

	event := originResponseEvent("200", s3Origin(testDomain), "/cat.jpg", "", nil)
	resp, err := handler.Handle(context.Background(), event)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	assertPassthrough(t, resp, "200")
	if executor.calls != 0 {
		t.Fatalf("expected noop plan to bypass transform, got %d calls", executor.calls)
	}
}

func TestHandleResizesJPEG(t *testing.T) {
	fetcher := &fakeFetcher{obj: storage.Object{ContentType: transform.MIMEJPEG, Body: buildJPEG(t, 300, 200)}}
	handler, _ := newTestHandler(fetcher, transform.NewExecutor(transform.NewCodec()))

	event := originResponseEvent("200", s3Origin(testDomain), "/cat.jpg", "width=150", nil)
	resp, err := handler.Handle(context.Background(), event)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp == nil {
		t.Fatal("expected a response")
	}
	if resp.BodyEncoding != "base64" {
		t.Fatalf("expected base64 body encoding, got %q", resp.BodyEncoding)
	}

	img, format := decodeBody(t, resp.Body)
	if format != "jpeg" {
		t.Fatalf("expected jpeg output, got %s", format)
	}
	if w, h := img.Bounds().Dx(), img.Bounds().Dy(); w != 150 || h != 100 {
		t.Fatalf("expected 150x100 output, got %dx%d", w, h)
	}
	if _, ok := resp.Headers.First("content-type"); ok {
		t.Fatal("expected content-type header to stay untouched without a forced encoding")
	}

	if fetcher.gotBucket != "photos" || fetcher.gotRegion != "eu-west-1" || fetcher.gotKey != "cat.jpg" {
		t.Fatalf("unexpected fetch target: %s/%s/%s", fetcher.gotBucket, fetcher.gotRegion, fetcher.gotKey)
	}
}

func TestHandleOriginalJPEGStillResizes(t *testing.T) {
	fetcher := &fakeFetcher{obj: storage.Object{ContentType: transform.MIMEJPEG, Body: buildJPEG(t, 300, 200)}}
	handler, _ := newTestHandler(fetcher, transform.NewExecutor(transform.NewCodec()))

	event := originResponseEvent("200", s3Origin(testDomain), "/cat.jpg", "format=original&width=150&height=100", nil)
	resp, err := handler.Handle(context.Background(), event)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp == nil {
		t.Fatal("expected a response")
	}

	img, format := decodeBody(t, resp.Body)
	if format != "jpeg" {
		t.Fatalf("expected source encoding preserved, got %s", format)
	}
	if w, h := img.Bounds().Dx(), img.Bounds().Dy(); w != 150 || h != 100 {
		t.Fatalf("expected 150x100 output, got %dx%d", w, h)
	}
	if _, ok := resp.Headers.First("content-type"); ok {
		t.Fatal("expected content-type header to stay untouched for format=original")
	}
}

func TestHandleGIFBecomesPNG(t *testing.T) {
	fetcher := &fakeFetcher{obj: storage.Object{ContentType: transform.MIMEGIF, Body: buildGIFFrames(t, 1)}}
	handler, _ := newTestHandler(fetcher, transform.NewExecutor(transform.NewCodec()))

	headers := Headers{"accept": {{Key: "Accept", Value: "text/html,image/apng"}}}
	event := originResponseEvent("200", s3Origin(testDomain), "/still.gif", "", headers)
	resp, err := handler.Handle(context.Background(), event)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp == nil {
		t.Fatal("expected a response")
	}

	contentType, ok := resp.Headers.First("content-type")
	if !ok || contentType != transform.MIMEPNG {
		t.Fatalf("expected content-type image/png, got %q", contentType)
	}

	_, format := decodeBody(t, resp.Body)
	if format != "png" {
		t.Fatalf("expected png output, got %s", format)
	}
}

func TestHandleAcceptWebpOverridesGIF(t *testing.T) {
	fetcher := &fakeFetcher{obj: storage.Object{ContentType: transform.MIMEGIF, Body: buildGIFFrames(t, 1)}}
	executor := &fakeExecutor{body: "d2VicA==", fits: true}
	handler, _ := newTestHandler(fetcher, executor)

	headers := Headers{"accept": {{Key: "Accept", Value: "image/webp,image/apng,*/*"}}}
	event := originResponseEvent("200", s3Origin(testDomain), "/still.gif", "quality=70", headers)
	resp, err := handler.Handle(context.Background(), event)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp == nil {
		t.Fatal("expected a response")
	}

	if executor.gotPlan.Encode != transform.FormatWEBP {
		t.Fatalf("expected webp encode plan, got %q", executor.gotPlan.Encode)
	}
	if executor.gotPlan.Quality != 70 {
		t.Fatalf("expected quality 70 in plan, got %d", executor.gotPlan.Quality)
	}

	contentType, ok := resp.Headers.First("content-type")
	if !ok || contentType != transform.MIMEWEBP {
		t.Fatalf("expected content-type image/webp, got %q", contentType)
	}
	if resp.Body != "d2VicA==" || resp.BodyEncoding != "base64" {
		t.Fatalf("expected executor body committed, got %q/%q", resp.Body, resp.BodyEncoding)
	}
}

func TestHandleOversizedOutputPassthrough(t *testing.T) {
	fetcher := &fakeFetcher{obj: storage.Object{ContentType: transform.MIMEJPEG, Body: buildJPEG(t, 300, 200)}}
	executor := &fakeExecutor{fits: false}
	handler, logs := newTestHandler(fetcher, executor)

	event := originResponseEvent("200", s3Origin(testDomain), "/cat.jpg", "width=150", nil)
	resp, err := handler.Handle(context.Background(), event)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	assertPassthrough(t, resp, "200")
	if executor.calls != 1 {
		t.Fatalf("expected one transform attempt, got %d", executor.calls)
	}
	if logs.Len() != 0 {
		t.Fatalf("expected no diagnostic log for oversized output, got %d", logs.Len())
	}
}

func TestHandleFetchErrorProducesNoResponse(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("access denied")}
	handler, logs := newTestHandler(fetcher, &fakeExecutor{})

	event := originResponseEvent("200", s3Origin(testDomain), "/cat.jpg", "width=150", nil)
	resp, err := handler.Handle(context.Background(), event)
	if err != nil {
		t.Fatalf("expected no error surfaced to the host, got %v", err)
	}
	if resp != nil {
		t.Fatalf("expected no response on fetch failure, got %+v", resp)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected exactly one diagnostic log line, got %d", logs.Len())
	}
}

func TestHandleTransformErrorProducesNoResponse(t *testing.T) {
	fetcher := &fakeFetcher{obj: storage.Object{ContentType: transform.MIMEJPEG, Body: buildJPEG(t, 300, 200)}}
	executor := &fakeExecutor{err: errors.New("codec blew up")}
	handler, logs := newTestHandler(fetcher, executor)

	event := originResponseEvent("200", s3Origin(testDomain), "/cat.jpg", "width=150", nil)
	resp, err := handler.Handle(context.Background(), event)
	if err != nil {
		t.Fatalf("expected no error surfaced to the host, got %v", err)
	}
	if resp != nil {
		t.Fatalf("expected no response on codec failure, got %+v", resp)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected exactly one diagnostic log line, got %d", logs.Len())
	}
}

func TestHandleRejectsMalformedEvent(t *testing.T) {
	handler, logs := newTestHandler(&fakeFetcher{}, &fakeExecutor{})

	resp, err := handler.Handle(context.Background(), Event{})
	if err != nil {
		t.Fatalf("expected no error surfaced to the host, got %v", err)
	}
	if resp != nil {
		t.Fatalf("expected no response for an empty event, got %+v", resp)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected exactly one diagnostic log line, got %d", logs.Len())
	}
}

type fakeFetcher struct {
	obj   storage.Object
	err   error
	calls int

	gotBucket string
	gotRegion string
	gotKey    string
}

func (f *fakeFetcher) FetchObject(_ context.Context, bucket, region, key string) (storage.Object, error) {
	f.calls++
	f.gotBucket, f.gotRegion, f.gotKey = bucket, region, key
	if f.err != nil {
		return storage.Object{}, f.err
	}
	return f.obj, nil
}

type fakeExecutor struct {
	body  string
	fits  bool
	err   error
	calls int

	gotPlan transform.Plan
}

func (f *fakeExecutor) Apply(_ context.Context, _ []byte, plan transform.Plan) (string, bool, error) {
	f.calls++
	f.gotPlan = plan
	if f.err != nil {
		return "", false, f.err
	}
	return f.body, f.fits, nil
}

func newTestHandler(fetcher ObjectFetcher, executor Executor) (*Handler, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.ErrorLevel)
	logger := zap.New(core).Sugar()
	return NewHandler(logger, fetcher, executor, transform.GIFAnimationDetector{}), logs
}

func originResponseEvent(status string, origin *Origin, uri, query string, headers Headers) Event {
	if headers == nil {
		headers = Headers{}
	}
	return Event{
		Records: []Record{{
			CF: RecordData{
				Config: RecordConfig{EventType: "origin-response"},
				Request: Request{
					Method:      "GET",
					URI:         uri,
					QueryString: query,
					Headers:     headers,
					Origin:      origin,
				},
				Response: Response{
					Status:  status,
					Headers: Headers{},
				},
			},
		}},
	}
}

func s3Origin(domain string) *Origin {
	return &Origin{S3: &S3Origin{DomainName: domain, AuthMethod: "none"}}
}

func assertPassthrough(t *testing.T, resp *Response, status string) {
	t.Helper()

	if resp == nil {
		t.Fatal("expected a passthrough response, got none")
	}
	if resp.Status != status {
		t.Fatalf("expected status %q, got %q", status, resp.Status)
	}
	if resp.Body != "" || resp.BodyEncoding != "" {
		t.Fatalf("expected untouched body, got %q/%q", resp.Body, resp.BodyEncoding)
	}
	if _, ok := resp.Headers.First("content-type"); ok {
		t.Fatal("expected untouched content-type header")
	}
}

func decodeBody(t *testing.T, body string) (image.Image, string) {
	t.Helper()

	raw, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		t.Fatalf("decode base64 body: %v", err)
	}
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode output image: %v", err)
	}
	return img, format
}

func buildJPEG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / w),
				G: uint8((y * 255) / h),
				B: 90,
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode source jpeg: %v", err)
	}
	return buf.Bytes()
}

func buildGIFFrames(t *testing.T, frames int) []byte {
	t.Helper()

	anim := &gif.GIF{}
	for i := 0; i < frames; i++ {
		frame := image.NewPaletted(image.Rect(0, 0, 32, 24), palette.Plan9)
		for p := range frame.Pix {
			frame.Pix[p] = uint8((p + i*11) % len(palette.Plan9))
		}
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 5)
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		t.Fatalf("encode gif: %v", err)
	}
	return buf.Bytes()
}
