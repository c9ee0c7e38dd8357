package html

// OperationReportTemplate renders the operation list as a single-page API reference
const OperationReportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{if .ProjectName}}{{.ProjectName}} {{end}}Routes - {{.AnalysisDate}}</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background: #f5f7fa; color: #2c3e50; line-height: 1.6; }
        .container { max-width: 1200px; margin: 0 auto; padding: 20px; }
        header { background: linear-gradient(135deg, #2b5876 0%, #4e4376 100%); color: white; padding: 36px 20px; margin-bottom: 30px; border-radius: 8px; }
        header h1 { font-size: 2.2em; margin-bottom: 8px; }
        header p { opacity: 0.9; }
        .summary { background: white; padding: 20px; border-radius: 8px; margin-bottom: 30px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.05); }
        .stats { display: grid; grid-template-columns: repeat(auto-fit, minmax(180px, 1fr)); gap: 15px; }
        .stat-card { background: #f8f9fa; padding: 15px; border-radius: 6px; border-left: 4px solid #4e4376; }
        .stat-card .label { font-size: 0.9em; color: #6c757d; }
        .stat-card .value { font-size: 1.8em; font-weight: bold; }
        .controller { margin: 30px 0 12px; font-size: 1.3em; color: #4e4376; }
        .controller small { color: #6c757d; font-weight: normal; font-size: 0.7em; }
        .operation { background: white; margin-bottom: 16px; border-radius: 8px; overflow: hidden; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.05); }
        .operation.deprecated { opacity: 0.65; }
        .operation-header { padding: 16px 20px; background: #f8f9fa; border-bottom: 1px solid #e9ecef; }
        .operation-title { display: flex; align-items: center; gap: 15px; }
        .verb { display: inline-block; min-width: 72px; text-align: center; padding: 5px 10px; border-radius: 4px; font-weight: bold; font-size: 0.85em; color: white; }
        .verb-get { background: #61affe; }
        .verb-post { background: #49cc90; }
        .verb-put { background: #fca130; }
        .verb-delete { background: #f93e3e; }
        .verb-patch { background: #50e3c2; }
        .verb-other { background: #6c757d; }
        .path { font-size: 1.2em; font-weight: 600; font-family: 'Courier New', monospace; }
        .meta { font-size: 0.9em; color: #6c757d; margin-top: 6px; }
        .operation-body { padding: 16px 20px; }
        .section-title { font-weight: 600; color: #495057; margin: 8px 0 10px; padding-bottom: 6px; border-bottom: 2px solid #e9ecef; }
        table { width: 100%; border-collapse: collapse; margin-bottom: 16px; }
        th { background: #f8f9fa; padding: 10px; text-align: left; border-bottom: 2px solid #dee2e6; }
        td { padding: 10px; border-bottom: 1px solid #e9ecef; }
        .mono { font-family: 'Courier New', monospace; }
        .type { font-family: 'Courier New', monospace; color: #e83e8c; }
        .badge { display: inline-block; padding: 2px 6px; border-radius: 3px; font-size: 0.75em; color: white; background: #6c757d; }
        .badge.required { background: #f93e3e; }
        footer { text-align: center; padding: 30px 20px; color: #6c757d; }
        .empty { text-align: center; padding: 60px 20px; color: #6c757d; }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>{{if .ProjectName}}{{.ProjectName}}{{else}}API Routes{{end}}{{if .ProjectVersion}} <small>{{.ProjectVersion}}</small>{{end}}</h1>
            <p>Generated on {{.AnalysisDate}} · run {{.RunID}}</p>
        </header>

        <div class="summary">
            <div class="stats">
                <div class="stat-card"><div class="label">Operations</div><div class="value">{{.TotalOperations}}</div></div>
                <div class="stat-card"><div class="label">Controllers</div><div class="value">{{.TotalControllers}}</div></div>
                <div class="stat-card"><div class="label">Deprecated</div><div class="value">{{.TotalDeprecated}}</div></div>
            </div>
        </div>

        {{range .Groups}}
        <h2 class="controller">{{.Name}} <small>{{.Package}}</small></h2>
            {{range .Operations}}
            <div class="operation{{if .Deprecated}} deprecated{{end}}" id="{{.OperationID}}">
                <div class="operation-header">
                    <div class="operation-title">
                        <span class="verb {{verbClass .Verb}}">{{.Verb}}</span>
                        <span class="path">{{.Pattern}}</span>
                        {{if .Deprecated}}<span class="badge">DEPRECATED</span>{{end}}
                    </div>
                    <div class="meta">
                        Method: <strong>{{.MethodName}}</strong>
                        {{if .Produces}} · Produces: {{join .Produces}}{{end}}
                        {{if .Consumes}} · Consumes: {{join .Consumes}}{{end}}
                    </div>
                </div>

                <div class="operation-body">
                    {{if .Parameters}}
                    <div class="section-title">Parameters</div>
                    <table>
                        <thead><tr><th>Name</th><th>In</th><th>Type</th><th>Required</th></tr></thead>
                        <tbody>
                            {{range .Parameters}}
                            <tr>
                                <td class="mono">{{.Name}}</td>
                                <td>{{.In}}</td>
                                <td class="type">{{simpleName .Type}}</td>
                                <td>{{if .Required}}<span class="badge required">REQUIRED</span>{{else}}<span class="badge">optional</span>{{end}}</td>
                            </tr>
                            {{end}}
                        </tbody>
                    </table>
                    {{end}}

                    {{with .RequestBody}}
                    <div class="section-title">Request Body <small>{{.ContentType}}</small></div>
                    {{if .Schema}}
                    <table>
                        <thead><tr><th>Field</th><th>Schema</th><th>Required</th></tr></thead>
                        <tbody>
                            {{$required := .Schema.Required}}
                            {{range .Schema.Properties}}
                            <tr>
                                <td class="mono">{{.Name}}</td>
                                <td class="type">{{schemaText .Schema}}</td>
                                <td>{{if contains $required .Name}}<span class="badge required">REQUIRED</span>{{else}}<span class="badge">optional</span>{{end}}</td>
                            </tr>
                            {{end}}
                        </tbody>
                    </table>
                    {{else}}
                    <p class="type">{{simpleName .Type}}{{if .Required}} <span class="badge required">REQUIRED</span>{{end}}</p>
                    {{end}}
                    {{end}}

                    <div class="section-title">Response</div>
                    <p class="type">{{responseText .}}</p>
                </div>
            </div>
            {{end}}
        {{else}}
            <div class="empty">
                <h3>No operations found</h3>
                <p>Check the mount manifest and that controller methods carry HTTP verb or path annotations.</p>
            </div>
        {{end}}

        <footer>
            <p>Generated by <strong>route-recon</strong></p>
        </footer>
    </div>
</body>
</html>
`
