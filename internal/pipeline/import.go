package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"plano/internal"
	"plano/internal/catalog"
	"plano/internal/config"
	"plano/internal/logging"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusEmpty   Status = "empty"
	StatusError   Status = "error"
)

const (
	msgUnsupported   = "Formato de arquivo não suportado. Use CSV, XLSX, XLS ou PDF."
	msgSheetError    = "Erro ao ler a planilha: %s"
	msgNoHeader      = "Não foi possível encontrar uma linha de cabeçalho válida. Verifique se as colunas obrigatórias correspondem às instruções."
	msgEmptySheet    = "A planilha está vazia."
	msgNoRows        = "Nenhum item de ação válido foi encontrado no arquivo. Verifique se as colunas obrigatórias estão preenchidas e se os nomes correspondem às instruções."
	msgSheetSuccess  = "%d ações foram encontradas e validadas no arquivo."
	msgSkipped       = " %d linha(s) ignorada(s) por falta de campos obrigatórios ou prazo inválido."
	msgMissingGoal   = "Por favor, preencha o 'Nome do Plano de Ação' antes de enviar um PDF para dar contexto à IA."
	msgPDFExtract    = "Erro ao extrair texto do PDF. O arquivo pode estar corrompido."
	msgPDFGenerate   = "Ocorreu um erro ao processar o PDF com a IA."
	msgPDFNoService  = "O serviço de IA não está configurado."
	msgPDFEmpty      = "A IA não retornou nenhuma ação válida a partir do PDF."
	msgPDFSuccess    = "%d ações foram geradas com sucesso a partir do PDF."
	msgFileReadError = "Erro ao ler o arquivo: %s"

	goalTemplate = "Com base no plano de ação nomeado \"%s\", analise o seguinte texto e gere as ações necessárias."
)

// ActionGenerator drafts action items from free text.
type ActionGenerator interface {
	GenerateActionPlan(ctx context.Context, req internal.GenerationRequest) ([]internal.ActionRecord, error)
}

// Options carry the plan context of one import.
type Options struct {
	PlanName     string
	Reason       internal.PlanReason
	EmissionDate string
}

// Result is what an import hands back to its caller. Err keeps the sentinel
// for errors.Is checks; Message is meant for people.
type Result struct {
	Records   []internal.ActionRecord
	Status    Status
	Message   string
	Skipped   int
	TotalRows int
	Source    string
	Err       error
}

type Importer struct {
	locator   HeaderLocator
	defaults  Defaults
	reason    internal.PlanReason
	extractor TextExtractor
	generator ActionGenerator
	log       *zap.SugaredLogger
}

func NewImporter(cfg config.Config, ref catalog.Reference, generator ActionGenerator, log *zap.SugaredLogger) *Importer {
	if log == nil {
		log = logging.Nop()
	}
	return &Importer{
		locator: HeaderLocator{ScanRows: cfg.ImportHeaderScanRows, MinMatches: cfg.ImportMinHeaderMatches},
		defaults: Defaults{
			StrategicPillar: ref.DefaultPillar(),
		}.withFallbacks(),
		reason:    internal.ParseReason(cfg.ImportReason, internal.ReasonOutros),
		extractor: PDFTextExtractor{},
		generator: generator,
		log:       log,
	}
}

// WithTextExtractor swaps the PDF text extractor.
func (im *Importer) WithTextExtractor(x TextExtractor) *Importer {
	im.extractor = x
	return im
}

func (im *Importer) ImportFile(ctx context.Context, path string, opts Options) Result {
	name := filepath.Base(path)
	if !Supported(name) {
		return im.finish(name, failure(ErrUnsupportedFileType, msgUnsupported))
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return im.finish(name, failure(fmt.Errorf("%w: %v", ErrUnreadableFile, err), fmt.Sprintf(msgFileReadError, err.Error())))
	}
	return im.Import(ctx, name, content, opts)
}

// Import dispatches on the file extension. It never returns an error: every
// failure ends up in the Result.
func (im *Importer) Import(ctx context.Context, fileName string, content []byte, opts Options) Result {
	ext := strings.ToLower(filepath.Ext(fileName))
	var res Result
	switch ext {
	case ".csv", ".xls", ".xlsx":
		res = im.importSpreadsheet(ext, content, opts)
	case ".pdf":
		res = im.importPDF(ctx, content, opts)
	default:
		res = failure(fmt.Errorf("%w: %q", ErrUnsupportedFileType, ext), msgUnsupported)
	}
	return im.finish(fileName, res)
}

// ImportRows runs header location and row normalization over rows already
// read by some other source, such as an HTML table.
func (im *Importer) ImportRows(rows [][]Cell, opts Options) Result {
	rows = dropBlankRows(rows)
	if len(rows) == 0 {
		return failure(fmt.Errorf("%w: empty sheet", ErrNoHeaderFound), fmt.Sprintf(msgSheetError, msgEmptySheet))
	}
	match, err := im.locator.Locate(rows)
	if err != nil {
		return failure(err, fmt.Sprintf(msgSheetError, msgNoHeader))
	}

	normalizer := NewRowNormalizer(match, im.defaultsFor(opts))
	dataRows := rows[match.HeaderRowIndex+1:]
	records := make([]internal.ActionRecord, 0, len(dataRows))
	skipped := 0
	for _, row := range dataRows {
		rec, ok := normalizer.Normalize(row)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}

	res := Result{Records: records, Skipped: skipped, TotalRows: len(dataRows)}
	if len(records) == 0 {
		res.Status = StatusEmpty
		res.Message = msgNoRows
		res.Err = ErrEmptyResult
		return res
	}
	res.Status = StatusSuccess
	res.Message = fmt.Sprintf(msgSheetSuccess, len(records))
	if skipped > 0 {
		res.Message += fmt.Sprintf(msgSkipped, skipped)
	}
	return res
}

// ImportHTML imports the first table in html that carries a valid header.
func (im *Importer) ImportHTML(html string, opts Options) Result {
	tables, err := ReadHTMLTables(html)
	if err != nil {
		return failure(fmt.Errorf("%w: %v", ErrUnreadableFile, err), fmt.Sprintf(msgSheetError, err.Error()))
	}
	res := failure(fmt.Errorf("%w: no tables", ErrNoHeaderFound), fmt.Sprintf(msgSheetError, msgNoHeader))
	for _, table := range tables {
		res = im.ImportRows(table, opts)
		if !errors.Is(res.Err, ErrNoHeaderFound) {
			break
		}
	}
	res.Source = "html"
	return res
}

func (im *Importer) importSpreadsheet(ext string, content []byte, opts Options) Result {
	rows, err := readSpreadsheet(ext, content)
	if err != nil {
		return failure(err, fmt.Sprintf(msgSheetError, err.Error()))
	}
	res := im.ImportRows(rows, opts)
	res.Source = strings.TrimPrefix(ext, ".")
	return res
}

func (im *Importer) importPDF(ctx context.Context, content []byte, opts Options) Result {
	if strings.TrimSpace(opts.PlanName) == "" {
		return failure(ErrMissingGoal, msgMissingGoal)
	}
	if im.generator == nil {
		return failure(fmt.Errorf("%w: no generator configured", ErrExternalService), msgPDFNoService)
	}

	text, err := im.extractor.ExtractText(ctx, content)
	if err != nil {
		return failure(fmt.Errorf("%w: extract text: %v", ErrExternalService, err), msgPDFExtract)
	}

	defaults := im.defaultsFor(opts)
	drafted, err := im.generator.GenerateActionPlan(ctx, internal.GenerationRequest{
		Goal:         fmt.Sprintf(goalTemplate, strings.TrimSpace(opts.PlanName)),
		Reason:       internal.PlanReason(defaults.Origin),
		EmissionDate: opts.EmissionDate,
		FileContent:  text,
	})
	if err != nil {
		msg := msgPDFGenerate
		var shown interface{ UserMessage() string }
		if errors.As(err, &shown) && strings.TrimSpace(shown.UserMessage()) != "" {
			msg = shown.UserMessage()
		}
		return failure(fmt.Errorf("%w: %w", ErrExternalService, err), msg)
	}

	records, skipped := SanitizeGenerated(drafted, defaults)
	res := Result{Records: records, Skipped: skipped, TotalRows: len(drafted), Source: "pdf"}
	if len(records) == 0 {
		res.Status = StatusEmpty
		res.Message = msgPDFEmpty
		res.Err = ErrEmptyResult
		return res
	}
	res.Status = StatusSuccess
	res.Message = fmt.Sprintf(msgPDFSuccess, len(records))
	return res
}

func (im *Importer) defaultsFor(opts Options) Defaults {
	d := im.defaults
	reason := opts.Reason
	if reason == "" {
		reason = im.reason
	}
	d.Origin = string(reason)
	return d
}

func (im *Importer) finish(fileName string, res Result) Result {
	if res.Status == StatusError {
		im.log.Warnw("import failed", "file", fileName, "error", res.Err)
	} else {
		im.log.Infow("import finished", "file", fileName, "status", res.Status, "records", len(res.Records), "skipped", res.Skipped)
	}
	return res
}

// Supported reports whether an import can be attempted for fileName.
func Supported(fileName string) bool {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv", ".xls", ".xlsx", ".pdf":
		return true
	}
	return false
}

func failure(err error, message string) Result {
	return Result{Status: StatusError, Message: message, Err: err, Records: []internal.ActionRecord{}}
}
